package service

import (
	"math"

	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/internal/core/port"

	"go.uber.org/zap"
)

// DefaultSurplusControlLogic decides phase count and charge current from the
// averaged power balance. Surplus is derived as wallbox power minus grid
// power, so exporting to the grid while charging counts as available power.
type DefaultSurplusControlLogic struct {
	Params domain.ControllerParams
	Logger *zap.Logger

	startup  bool
	phase    int
	currentA int
}

func CreateSurplusControlLogic(params domain.ControllerParams, logger *zap.Logger) *DefaultSurplusControlLogic {
	return &DefaultSurplusControlLogic{
		Params:  params,
		Logger:  logger,
		startup: true,
		phase:   1,
	}
}

func (ctrl *DefaultSurplusControlLogic) Step(gridAvgKW float64, wallboxAvgKW float64) domain.SurplusControlResult {

	rawKW := wallboxAvgKW - gridAvgKW
	availableKW := math.Max(0, rawKW-ctrl.Params.ReservedPowerKW)

	phaseNew := ctrl.nextPhase(availableKW)

	var currentNew int
	if (ctrl.currentA > 0 && availableKW > ctrl.Params.ChargeStopKW) ||
		(ctrl.currentA == 0 && availableKW > ctrl.Params.ChargeStartKW) {
		currentNew = int(math.Floor(powerToCurrent(availableKW, phaseNew)))
		if currentNew > ctrl.Params.MaxCurrentA {
			currentNew = ctrl.Params.MaxCurrentA
		}
		if currentNew < ctrl.Params.MinCurrentA {
			currentNew = ctrl.Params.MinCurrentA
		}
	} else {
		currentNew = 0
	}

	if phaseNew != ctrl.phase {
		ctrl.Logger.Info("surplus_control: phase switch",
			zap.Int("from", ctrl.phase), zap.Int("to", phaseNew),
			zap.Float64("available_kw", availableKW))
	}

	ctrl.phase = phaseNew
	ctrl.currentA = currentNew
	ctrl.startup = false

	return domain.SurplusControlResult{
		Phase:       phaseNew,
		Current:     currentNew,
		AvailableKW: availableKW,
	}
}

// nextPhase applies the phase hysteresis. The very first evaluation uses the
// stricter startup threshold for the 1 to 3 switch.
func (ctrl *DefaultSurplusControlLogic) nextPhase(availableKW float64) int {
	if ctrl.startup {
		if availableKW > ctrl.Params.PhaseUpStartKW {
			return 3
		}
		return 1
	}
	if ctrl.phase == 1 && availableKW > ctrl.Params.PhaseUpKW {
		return 3
	}
	if ctrl.phase == 3 && availableKW < ctrl.Params.PhaseDownKW {
		return 1
	}
	return ctrl.phase
}

func (ctrl *DefaultSurplusControlLogic) ReservedPowerKW() float64 {
	return ctrl.Params.ReservedPowerKW
}

// powerToCurrent maps a desired charge power to a current for the given
// phase count. The coefficients come from the wallbox charge curves.
func powerToCurrent(powerKW float64, phase int) float64 {
	if phase == 1 {
		return 4.4444*powerKW + 1.1111
	}
	return 1.2345*powerKW + 4.0100
}

// ensure interface compliance
var _ port.SurplusControlLogic = (*DefaultSurplusControlLogic)(nil)
