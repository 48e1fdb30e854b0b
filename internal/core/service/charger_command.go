package service

import (
	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/internal/core/port"
	"github.com/berfenger/surplus2goe/pkg/goe"

	"go.uber.org/zap"
)

// DefaultChargerCommander applies a phase/current decision to the wallbox.
// It always reads the charger state first and refuses to command against an
// unknown state. Phase and current are set before charging is enabled.
type DefaultChargerCommander struct {
	Charger goe.ChargerClient
	Logger  *zap.Logger
}

// Apply returns whether any command was sent. A no-op decision or an
// indeterminate charger state returns false with no error.
func (cc *DefaultChargerCommander) Apply(phaseNew int, currentNew int) (bool, error) {

	if cc.Charger == nil {
		cc.Logger.Warn("charger_command: no charger client available, skipping")
		return false, nil
	}

	st, err := cc.Charger.GetStatus()
	if err != nil {
		return false, domain.NewReadError("charger", err)
	}
	carState := st.CarState
	if carState == "" {
		carState = goe.CarStateUnknown
	}

	cc.Logger.Info("charger_command: decision",
		zap.String("car_state", string(carState)),
		zap.Any("phase", st.PhaseMode),
		zap.Any("ampere", st.AmpereAllowed),
		zap.Int("phase_new", phaseNew),
		zap.Int("current_new", currentNew))

	if st.PhaseMode == nil || st.AmpereAllowed == nil {
		cc.Logger.Warn("charger_command: incomplete charger status, skipping control action")
		return false, nil
	}
	if carState == goe.CarStateUnknown {
		cc.Logger.Warn("charger_command: indeterminate car state, skipping control action")
		return false, nil
	}

	// not charging and nothing to charge with, keep the charger off
	if carState != goe.CarStateCharging && currentNew == 0 {
		return false, nil
	}

	// stop charging
	if carState == goe.CarStateCharging && currentNew == 0 {
		if err := cc.Charger.SetChargingEnabled(false); err != nil {
			return false, domain.NewCommandError("charger", err)
		}
		return true, nil
	}

	// start charging: phase and current first, then enable
	if carState != goe.CarStateIdle && carState != goe.CarStateCharging && currentNew > 0 {
		if err := cc.Charger.SetPhaseMode(phaseNew); err != nil {
			return false, domain.NewCommandError("charger", err)
		}
		if err := cc.Charger.SetAmpere(currentNew); err != nil {
			return false, domain.NewCommandError("charger", err)
		}
		if err := cc.Charger.SetChargingEnabled(true); err != nil {
			return false, domain.NewCommandError("charger", err)
		}
		return true, nil
	}

	// charging, adjust parameters
	if carState == goe.CarStateCharging && currentNew > 0 {
		if *st.PhaseMode != phaseNew {
			if err := cc.Charger.SetPhaseMode(phaseNew); err != nil {
				return false, domain.NewCommandError("charger", err)
			}
		}
		if err := cc.Charger.SetAmpere(currentNew); err != nil {
			return false, domain.NewCommandError("charger", err)
		}
		return true, nil
	}

	return false, nil
}

// ensure interface compliance
var _ port.ChargerCommander = (*DefaultChargerCommander)(nil)
