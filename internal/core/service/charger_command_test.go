package service

import (
	"errors"
	"testing"

	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/pkg/goe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKeepOffWhenNotChargingAndNoCurrent(t *testing.T) {

	assert := assert.New(t)

	client := goe.CreateTestChargerClient(chargerStatus(goe.CarStateIdle, 1, 0))
	applied, err := commander(client).Apply(1, 0)

	assert.NoError(err)
	assert.False(applied)
	assert.Empty(client.Calls)
}

func TestStopWhenChargingAndNoCurrent(t *testing.T) {

	assert := assert.New(t)

	client := goe.CreateTestChargerClient(chargerStatus(goe.CarStateCharging, 1, 10))
	applied, err := commander(client).Apply(1, 0)

	assert.NoError(err)
	assert.True(applied)
	assert.Equal([]string{"charging=false"}, client.Calls)
}

func TestStartSinglePhaseWhenCarWaiting(t *testing.T) {

	assert := assert.New(t)

	client := goe.CreateTestChargerClient(chargerStatus(goe.CarStateWaiting, 1, 0))
	applied, err := commander(client).Apply(1, 10)

	assert.NoError(err)
	assert.True(applied)
	// phase and current must be set before charging is enabled
	assert.Equal([]string{"phase=1", "ampere=10", "charging=true"}, client.Calls)
}

func TestStartThreePhaseWhenCarFinished(t *testing.T) {

	assert := assert.New(t)

	client := goe.CreateTestChargerClient(chargerStatus(goe.CarStateFinished, 1, 0))
	applied, err := commander(client).Apply(3, 13)

	assert.NoError(err)
	assert.True(applied)
	assert.Equal([]string{"phase=3", "ampere=13", "charging=true"}, client.Calls)
}

func TestNoStartWhenCarIdle(t *testing.T) {

	assert := assert.New(t)

	client := goe.CreateTestChargerClient(chargerStatus(goe.CarStateIdle, 1, 0))
	applied, err := commander(client).Apply(1, 12)

	assert.NoError(err)
	assert.False(applied)
	assert.Empty(client.Calls)
}

func TestAdjustCurrentOnSamePhase(t *testing.T) {

	assert := assert.New(t)

	client := goe.CreateTestChargerClient(chargerStatus(goe.CarStateCharging, 3, 13))
	applied, err := commander(client).Apply(3, 12)

	assert.NoError(err)
	assert.True(applied)
	assert.Equal([]string{"ampere=12"}, client.Calls)
}

func TestAdjustWithPhaseSwitch(t *testing.T) {

	assert := assert.New(t)

	client := goe.CreateTestChargerClient(chargerStatus(goe.CarStateCharging, 1, 16))
	applied, err := commander(client).Apply(3, 13)

	assert.NoError(err)
	assert.True(applied)
	assert.Equal([]string{"phase=3", "ampere=13"}, client.Calls)
}

func TestSkipOnIncompleteChargerStatus(t *testing.T) {

	assert := assert.New(t)

	client := goe.CreateTestChargerClient(goe.ChargerStatus{
		CarState:      goe.CarStateCharging,
		AmpereAllowed: goe.OptionalInt(10),
	})
	applied, err := commander(client).Apply(1, 0)

	assert.NoError(err)
	assert.False(applied)
	assert.Empty(client.Calls)
}

func TestSkipOnUnknownCarState(t *testing.T) {

	assert := assert.New(t)

	client := goe.CreateTestChargerClient(chargerStatus(goe.CarStateUnknown, 1, 10))
	applied, err := commander(client).Apply(1, 10)

	assert.NoError(err)
	assert.False(applied)
	assert.Empty(client.Calls)
}

func TestStatusReadErrorAborts(t *testing.T) {

	require := require.New(t)

	client := goe.CreateTestChargerClient(chargerStatus(goe.CarStateCharging, 1, 10))
	client.StatusErr = errors.New("connection refused")

	applied, err := commander(client).Apply(1, 0)

	require.Error(err)
	require.True(domain.IsReadError(err))
	require.False(applied)
	require.Empty(client.Calls)
}

func TestCommandErrorIsReported(t *testing.T) {

	require := require.New(t)

	client := goe.CreateTestChargerClient(chargerStatus(goe.CarStateCharging, 1, 10))
	client.CommandErr = errors.New("500 internal server error")

	applied, err := commander(client).Apply(1, 0)

	require.Error(err)
	require.True(domain.IsCommandError(err))
	require.False(applied)
}

func TestNilChargerSkips(t *testing.T) {

	assert := assert.New(t)

	cc := DefaultChargerCommander{
		Charger: nil,
		Logger:  zap.Must(zap.NewDevelopment()),
	}
	applied, err := cc.Apply(1, 10)

	assert.NoError(err)
	assert.False(applied)
}

func commander(client goe.ChargerClient) *DefaultChargerCommander {
	return &DefaultChargerCommander{
		Charger: client,
		Logger:  zap.Must(zap.NewDevelopment()),
	}
}

func chargerStatus(carState goe.CarState, phase int, ampere int) goe.ChargerStatus {
	return goe.ChargerStatus{
		CarState:      carState,
		PhaseMode:     goe.OptionalInt(phase),
		AmpereAllowed: goe.OptionalInt(ampere),
	}
}
