package events

import (
	. "github.com/berfenger/surplus2goe/internal/core/domain"
)

// LiveStatusToUpdateEvents maps the instantaneous part of a status snapshot
// to sensor update events. Nil fields produce no event, so a failed read
// leaves the corresponding sensor at its last published value.
func LiveStatusToUpdateEvents(status *StatusSnapshot) []any {
	var events []any

	// PV Power
	if status.PVPowerKW != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_PV_POWER,
			},
			Value:    *status.PVPowerKW,
			Decimals: 2,
		})
	}
	// Grid Power Flow
	if status.GridPowerKW != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_GRID_POWER,
			},
			Value:    *status.GridPowerKW,
			Decimals: 2,
		})
	}
	// Wallbox Charge Power
	if status.WallboxPowerKW != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_WALLBOX_POWER,
			},
			Value:    *status.WallboxPowerKW,
			Decimals: 2,
		})
	}
	// Available Surplus Power
	if status.AvailablePowerNowKW != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_AVAILABLE_POWER,
			},
			Value:    *status.AvailablePowerNowKW,
			Decimals: 2,
		})
	}
	// Commanded Phase Mode
	if status.ChargePhase != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_CHARGE_PHASE,
			},
			Value:    float64(*status.ChargePhase),
			Decimals: 0,
		})
	}
	// Commanded Charge Current
	if status.ChargeCurrentA != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_CHARGE_CURRENT,
			},
			Value:    float64(*status.ChargeCurrentA),
			Decimals: 0,
		})
	}
	// Car State
	if status.CarState != nil {
		events = append(events, TextSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_CAR_STATE,
			},
			Value: string(*status.CarState),
		})
	}
	// Energy Since Connected
	if status.EnergySinceConnectedWh != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_ENERGY_SINCE_CONNECTED,
			},
			Value:    *status.EnergySinceConnectedWh,
			Decimals: 0,
		})
	}

	return events
}

// ControlAveragesToUpdateEvents maps the windowed averages refreshed by a
// control evaluation to sensor update events.
func ControlAveragesToUpdateEvents(status *StatusSnapshot) []any {
	var events []any

	// Grid Power Average
	if status.GridPowerAvgKW != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_GRID_POWER_AVG,
			},
			Value:    *status.GridPowerAvgKW,
			Decimals: 2,
		})
	}
	// Wallbox Charge Power Average
	if status.WallboxPowerAvgKW != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_WALLBOX_POWER_AVG,
			},
			Value:    *status.WallboxPowerAvgKW,
			Decimals: 2,
		})
	}
	// Available Surplus Power Average
	if status.AvailablePowerKW != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_AVAILABLE_POWER_AVG,
			},
			Value:    *status.AvailablePowerKW,
			Decimals: 2,
		})
	}

	return events
}

// VehicleStatusToUpdateEvents maps the cloud vehicle fields of a status
// snapshot to sensor update events.
func VehicleStatusToUpdateEvents(status *StatusSnapshot) []any {
	var events []any

	// Car battery SoC
	if status.CarSoc != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_CAR_SOC,
			},
			Value:    *status.CarSoc,
			Decimals: 2,
		})
	}
	// Car Autonomy
	if status.CarAutonomyKm != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_CAR_AUTONOMY,
			},
			Value:    *status.CarAutonomyKm,
			Decimals: 0,
		})
	}
	// Car Plug Status
	if status.CarPlugStatus != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_CAR_PLUG_STATUS,
			},
			Value:    float64(*status.CarPlugStatus),
			Decimals: 0,
		})
	}
	// Car Charging Status
	if status.CarChargingStatus != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: SENSOR_ID_CAR_CHARGING_STATUS,
			},
			Value:    *status.CarChargingStatus,
			Decimals: 1,
		})
	}

	return events
}

func OperatingModeUpdateEvents(mode OperatingMode) []any {
	var events []any
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_OPERATING_MODE,
		},
		Value: string(mode),
	})
	events = append(events, SurplusModeSwitchUpdateEvent(mode))
	return events
}

func SurplusModeSwitchUpdateEvent(mode OperatingMode) any {
	return SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SWITCH_ID_SURPLUS_MODE,
		},
		Value: mode == MODE_PV_SURPLUS,
	}
}

func SocProtectionSwitchUpdateEvent(enabled bool) any {
	return SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SWITCH_ID_SOC_PROTECTION,
		},
		Value: enabled,
	}
}
