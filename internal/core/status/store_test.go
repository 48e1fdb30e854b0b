package status

import (
	"testing"
	"time"

	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/pkg/goe"
	"github.com/berfenger/surplus2goe/pkg/renault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialState(t *testing.T) {

	assert := assert.New(t)

	store := NewStore(domain.MODE_PV_SURPLUS, true)
	snap := store.Snapshot()

	assert.Equal(domain.MODE_PV_SURPLUS, snap.Mode)
	assert.True(snap.SocProtectionEnabled)
	assert.Nil(snap.Timestamp)
	assert.Nil(snap.PVPowerKW)
	assert.Nil(snap.GridPowerAvgKW)
	assert.False(snap.CarStatusValid)

	mode, switched := store.ModeAndSwitchFlag()
	assert.Equal(domain.MODE_PV_SURPLUS, mode)
	assert.False(switched)
}

func TestSetModeRejectsUnknownValue(t *testing.T) {

	require := require.New(t)

	store := NewStore(domain.MODE_MONITOR_ONLY, false)

	_, err := store.SetMode("turbo")
	require.Error(err)
	require.True(domain.IsValidationError(err))

	// stored mode must be unchanged
	require.Equal(domain.MODE_MONITOR_ONLY, store.Mode())
	_, switched := store.ModeAndSwitchFlag()
	require.False(switched)
}

func TestSwitchToPVArmsOneShotFlag(t *testing.T) {

	assert := assert.New(t)

	store := NewStore(domain.MODE_PV_SURPLUS, false)

	mode, err := store.SetMode("monitor_only")
	assert.NoError(err)
	assert.Equal(domain.MODE_MONITOR_ONLY, mode)
	_, switched := store.ModeAndSwitchFlag()
	assert.False(switched)

	mode, err = store.SetMode("pv_surplus")
	assert.NoError(err)
	assert.Equal(domain.MODE_PV_SURPLUS, mode)
	_, switched = store.ModeAndSwitchFlag()
	assert.True(switched)
}

func TestFlagNotArmedWhenAlreadyInPVMode(t *testing.T) {

	assert := assert.New(t)

	store := NewStore(domain.MODE_PV_SURPLUS, false)

	_, err := store.SetMode("pv_surplus")
	assert.NoError(err)
	_, switched := store.ModeAndSwitchFlag()
	assert.False(switched)
}

func TestControlResultConsumesSwitchFlag(t *testing.T) {

	assert := assert.New(t)

	store := NewStore(domain.MODE_MONITOR_ONLY, false)
	store.SetMode("pv_surplus")

	store.ApplyControlResult(-1.2, 2.3, domain.SurplusControlResult{
		Phase:       1,
		Current:     14,
		AvailableKW: 3.5,
	})

	_, switched := store.ModeAndSwitchFlag()
	assert.False(switched)

	snap := store.Snapshot()
	assert.InDelta(-1.2, *snap.GridPowerAvgKW, 1e-9)
	assert.InDelta(2.3, *snap.WallboxPowerAvgKW, 1e-9)
	assert.InDelta(3.5, *snap.AvailablePowerKW, 1e-9)
}

func TestLiveUpdateReplacesFieldsWholesale(t *testing.T) {

	assert := assert.New(t)

	store := NewStore(domain.MODE_PV_SURPLUS, false)
	carState := goe.CarStateCharging

	store.ApplyLiveUpdate(LiveUpdate{
		Timestamp:      time.Now(),
		PVPowerKW:      optFloat(4.2),
		GridPowerKW:    optFloat(-1.0),
		WallboxPowerKW: optFloat(3.1),
		AvailableNowKW: optFloat(4.1),
		CarState:       &carState,
		ChargePhase:    optInt(3),
		ChargeCurrentA: optInt(13),
		EnergyWh:       optFloat(5210),
	})

	snap := store.Snapshot()
	assert.InDelta(4.2, *snap.PVPowerKW, 1e-9)
	assert.InDelta(-1.0, *snap.GridPowerKW, 1e-9)
	assert.Equal(goe.CarStateCharging, *snap.CarState)
	assert.Equal(3, *snap.ChargePhase)
	assert.Equal(13, *snap.ChargeCurrentA)

	// a partial update degrades failed reads back to unknown
	store.ApplyLiveUpdate(LiveUpdate{
		Timestamp:   time.Now(),
		GridPowerKW: optFloat(-0.5),
	})

	snap = store.Snapshot()
	assert.Nil(snap.PVPowerKW)
	assert.Nil(snap.WallboxPowerKW)
	assert.Nil(snap.CarState)
	assert.Nil(snap.ChargePhase)
	assert.InDelta(-0.5, *snap.GridPowerKW, 1e-9)
	assert.NotNil(snap.Timestamp)
}

func TestVehicleStatusValidityLifecycle(t *testing.T) {

	assert := assert.New(t)

	store := NewStore(domain.MODE_PV_SURPLUS, true)

	readAt := time.Now()
	store.ApplyVehicleStatus(&renault.BatteryStatus{
		SocPercent:     optFloat(84),
		AutonomyKm:     optFloat(215),
		PlugStatus:     optInt(1),
		ChargingStatus: optFloat(1.0),
		Timestamp:      readAt,
	})

	snap := store.Snapshot()
	assert.True(snap.CarStatusValid)
	assert.InDelta(84, *snap.CarSoc, 1e-9)
	assert.InDelta(215, *snap.CarAutonomyKm, 1e-9)
	assert.Equal(1, *snap.CarPlugStatus)
	assert.WithinDuration(readAt, *snap.CarStatusTimestamp, time.Second)

	// a failed poll keeps the last values but invalidates them
	failedAt := readAt.Add(5 * time.Minute)
	store.MarkVehicleStatusAttempt(failedAt)

	snap = store.Snapshot()
	assert.False(snap.CarStatusValid)
	assert.InDelta(84, *snap.CarSoc, 1e-9)
	assert.WithinDuration(failedAt, *snap.CarStatusTimestamp, time.Second)
}

func TestSocProtectionToggle(t *testing.T) {

	assert := assert.New(t)

	store := NewStore(domain.MODE_PV_SURPLUS, false)
	assert.False(store.SocProtectionEnabled())

	store.SetSocProtection(true)
	assert.True(store.SocProtectionEnabled())
	assert.True(store.Snapshot().SocProtectionEnabled)

	store.SetSocProtection(false)
	assert.False(store.SocProtectionEnabled())
}

func optFloat(v float64) *float64 {
	return &v
}

func optInt(v int) *int {
	return &v
}
