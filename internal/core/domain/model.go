package domain

import (
	"fmt"
	"time"

	"github.com/berfenger/surplus2goe/pkg/goe"
)

// OperatingMode of the supervisory loop.
type OperatingMode string

const (
	MODE_PV_SURPLUS   OperatingMode = "pv_surplus"
	MODE_MONITOR_ONLY OperatingMode = "monitor_only"
)

func ParseOperatingMode(value string) (OperatingMode, error) {
	switch OperatingMode(value) {
	case MODE_PV_SURPLUS, MODE_MONITOR_ONLY:
		return OperatingMode(value), nil
	default:
		return "", NewValidationError("mode", fmt.Sprintf("unsupported mode: %s", value))
	}
}

// ControllerParams are the thresholds and limits of the surplus control
// logic, fixed for the lifetime of the process.
// Power thresholds must satisfy PhaseDownKW < PhaseUpKW <= PhaseUpStartKW.
type ControllerParams struct {
	PhaseUpStartKW  float64
	PhaseUpKW       float64
	PhaseDownKW     float64
	ChargeStartKW   float64
	ChargeStopKW    float64
	MinCurrentA     int
	MaxCurrentA     int
	ReservedPowerKW float64
}

// SurplusControlResult is the outcome of one control evaluation.
// AvailableKW is the effective surplus after the reserved margin, clipped
// at zero.
type SurplusControlResult struct {
	Phase       int
	Current     int
	AvailableKW float64
}

// BatterySavingCheckResult is the outcome of one battery protection check.
// Soc is informational and may be set even when Stop is false.
type BatterySavingCheckResult struct {
	Stop bool
	Soc  *float64
}

// StatusSnapshot is a copy of the shared status at one instant. Nil fields
// have not been read yet or failed on their last read. Pointer values are
// always replaced, never mutated in place, so a shallow copy is consistent.
type StatusSnapshot struct {
	Timestamp              *time.Time    `json:"timestamp"`
	PVPowerKW              *float64      `json:"pv_kw"`
	GridPowerKW            *float64      `json:"grid_kw"`
	WallboxPowerKW         *float64      `json:"wb_kw"`
	GridPowerAvgKW         *float64      `json:"grid_kw_avg"`
	WallboxPowerAvgKW      *float64      `json:"wb_kw_avg"`
	AvailablePowerKW       *float64      `json:"p_available_kw"`
	AvailablePowerNowKW    *float64      `json:"p_available_now"`
	ChargePhase            *int          `json:"phase"`
	ChargeCurrentA         *int          `json:"current"`
	Mode                   OperatingMode `json:"mode"`
	CarState               *goe.CarState `json:"car_state"`
	EnergySinceConnectedWh *float64      `json:"energy_since_connected_wh"`

	CarSoc             *float64   `json:"car_soc"`
	CarAutonomyKm      *float64   `json:"car_autonomy_km"`
	CarPlugStatus      *int       `json:"car_plug_status"`
	CarChargingStatus  *float64   `json:"car_charging_status"`
	CarStatusValid     bool       `json:"car_status_valid"`
	CarStatusTimestamp *time.Time `json:"car_status_timestamp"`

	SocProtectionEnabled bool `json:"soc_protection"`
}
