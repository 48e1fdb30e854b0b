package goe

import "strconv"

// CarState as reported by the charger. The HTTP API v2 field "car" and the
// modbus input register 100 share the same code space.
type CarState string

const (
	CarStateUnknown  CarState = "Unknown"
	CarStateIdle     CarState = "Idle"
	CarStateCharging CarState = "Charging"
	CarStateWaiting  CarState = "Waiting"
	CarStateFinished CarState = "Finished"
)

// CarStateFromCode maps a charger state code to a CarState.
// 0 means unknown or defect, codes above 4 are passed through verbatim.
func CarStateFromCode(code int) CarState {
	switch code {
	case 0:
		return CarStateUnknown
	case 1:
		return CarStateIdle
	case 2:
		return CarStateCharging
	case 3:
		return CarStateWaiting
	case 4:
		return CarStateFinished
	default:
		return CarState(strconv.Itoa(code))
	}
}

// IsCarConnected reports whether a vehicle is plugged in for a state code
// (charging, waiting for charge release or finished).
func IsCarConnected(code int) bool {
	return code == 2 || code == 3 || code == 4
}

// ChargerStatus is the minimal normalized view on the charger state.
// PhaseMode and AmpereAllowed are nil when the charger did not report a
// usable value.
type ChargerStatus struct {
	CarState               CarState
	PhaseMode              *int
	AmpereAllowed          *int
	EnergySinceConnectedWh *float64
}

func OptionalInt(value int) *int {
	return &value
}

func OptionalFloat(value float64) *float64 {
	return &value
}
