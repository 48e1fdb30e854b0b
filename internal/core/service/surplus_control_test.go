package service

import (
	"fmt"
	"testing"

	"github.com/berfenger/surplus2goe/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	MAX_LOOP_INTER = 100
)

func TestNoSurplus(t *testing.T) {

	require := require.New(t)
	ctrl := newCtrl()

	// 1 kW grid import, wallbox off
	r := stepAndCheck(require, ctrl, 1.0, 0.0)

	assert.InDelta(t, 0.0, r.AvailableKW, 1e-6)
	assert.EqualValues(t, 0, r.Current)
	assert.EqualValues(t, 1, r.Phase)
}

func TestModerateSurplusStartsSinglePhase(t *testing.T) {

	require := require.New(t)
	ctrl := newCtrl()

	// 3 kW export, wallbox off
	r := stepAndCheck(require, ctrl, -3.0, 0.0)

	assert.InDelta(t, 3.0, r.AvailableKW, 1e-6)
	assert.EqualValues(t, 1, r.Phase)
	// floor(4.4444*3 + 1.1111) = 14
	assert.EqualValues(t, 14, r.Current)
}

func TestHighSurplusStartsThreePhase(t *testing.T) {

	require := require.New(t)
	ctrl := newCtrl()

	// 5 kW export while the wallbox already draws 3 kW
	r := stepAndCheck(require, ctrl, -5.0, 3.0)

	assert.InDelta(t, 8.0, r.AvailableKW, 1e-6)
	assert.EqualValues(t, 3, r.Phase)
	// floor(1.2345*8 + 4.0100) = 13
	assert.EqualValues(t, 13, r.Current)
}

func TestStartupPhaseThresholdAsymmetry(t *testing.T) {

	require := require.New(t)
	ctrl := newCtrl()

	// 6 kW surplus is below the startup threshold but above the
	// steady-state 1 to 3 threshold
	r := stepAndCheck(require, ctrl, -6.0, 0.0)
	require.EqualValues(1, r.Phase)

	r = stepAndCheck(require, ctrl, -6.0, 0.0)
	require.EqualValues(3, r.Phase)
}

func TestPhaseDownHysteresis(t *testing.T) {

	require := require.New(t)
	ctrl := newCtrl()

	r := stepAndCheck(require, ctrl, -8.0, 0.0)
	require.EqualValues(3, r.Phase)

	// 4 kW is below the 1 to 3 threshold but above the 3 to 1 threshold,
	// phase must hold
	r = stepAndCheck(require, ctrl, -4.0, 0.0)
	require.EqualValues(3, r.Phase)

	r = stepAndCheck(require, ctrl, -3.0, 0.0)
	require.EqualValues(1, r.Phase)
}

func TestChargeStartStopHysteresis(t *testing.T) {

	require := require.New(t)
	ctrl := newCtrl()

	r := stepAndCheck(require, ctrl, -3.0, 0.0)
	require.Greater(r.Current, 0)

	// already charging, 1.5 kW is above the stop threshold
	r = stepAndCheck(require, ctrl, -1.5, 0.0)
	require.Greater(r.Current, 0)

	// below the stop threshold, charge must stop
	r = stepAndCheck(require, ctrl, -0.9, 0.0)
	require.EqualValues(0, r.Current)

	// not charging, 1.5 kW is below the start threshold, must stay off
	r = stepAndCheck(require, ctrl, -1.5, 0.0)
	require.EqualValues(0, r.Current)
}

func TestReservedPowerMargin(t *testing.T) {

	require := require.New(t)

	params := defaultParams()
	params.ReservedPowerKW = 0.5
	ctrl := CreateSurplusControlLogic(params, zap.Must(zap.NewDevelopment()))

	r := stepAndCheck(require, ctrl, -3.0, 0.0)
	assert.InDelta(t, 2.5, r.AvailableKW, 1e-6)
	assert.InDelta(t, 0.5, ctrl.ReservedPowerKW(), 1e-6)
}

func TestCurrentBoundsOverSurplusSweep(t *testing.T) {

	require := require.New(t)
	ctrl := newCtrl()

	// sweep the surplus from none to far above the 3-phase maximum and
	// check the invariants at every step
	count := 0
	for export := 0.0; export <= 12.0; export += 0.25 {
		stepAndCheck(require, ctrl, -export, 0.0)
		count++
		// avoid infinite loop
		require.LessOrEqual(count, int(MAX_LOOP_INTER), "possible infinite loop avoided")
	}
}

// Generic check for a single control step: available power is never
// negative, phase is 1 or 3 and a positive current stays within limits.
func stepAndCheck(require *require.Assertions, ctrl *DefaultSurplusControlLogic, gridAvgKW, wallboxAvgKW float64) domain.SurplusControlResult {

	r := ctrl.Step(gridAvgKW, wallboxAvgKW)

	fmt.Printf("Check control step: grid=%.2f wb=%.2f => phase=%d current=%d avail=%.2f\n",
		gridAvgKW, wallboxAvgKW, r.Phase, r.Current, r.AvailableKW)

	require.GreaterOrEqual(r.AvailableKW, 0.0, "available power cannot be negative")
	require.Contains([]int{1, 3}, r.Phase, "phase must be 1 or 3")
	if r.Current != 0 {
		require.GreaterOrEqual(r.Current, ctrl.Params.MinCurrentA, "positive current below minimum")
		require.LessOrEqual(r.Current, ctrl.Params.MaxCurrentA, "current above maximum")
	}
	return r
}

func defaultParams() domain.ControllerParams {
	return domain.ControllerParams{
		PhaseUpStartKW:  7.0,
		PhaseUpKW:       5.8,
		PhaseDownKW:     3.5,
		ChargeStartKW:   2.0,
		ChargeStopKW:    1.0,
		MinCurrentA:     10,
		MaxCurrentA:     16,
		ReservedPowerKW: 0,
	}
}

func newCtrl() *DefaultSurplusControlLogic {
	return CreateSurplusControlLogic(defaultParams(), zap.Must(zap.NewDevelopment()))
}
