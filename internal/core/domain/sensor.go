package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE           = "bridge"
	SENSOR_ID_PV_POWER               = "pv_power"
	SENSOR_ID_GRID_POWER             = "grid_power"
	SENSOR_ID_WALLBOX_POWER          = "wallbox_power"
	SENSOR_ID_AVAILABLE_POWER        = "available_power"
	SENSOR_ID_GRID_POWER_AVG         = "grid_power_avg"
	SENSOR_ID_WALLBOX_POWER_AVG      = "wallbox_power_avg"
	SENSOR_ID_AVAILABLE_POWER_AVG    = "available_power_avg"
	SENSOR_ID_CHARGE_PHASE           = "charge_phase"
	SENSOR_ID_CHARGE_CURRENT         = "charge_current"
	SENSOR_ID_CAR_STATE              = "car_state"
	SENSOR_ID_CAR_SOC                = "car_soc"
	SENSOR_ID_CAR_AUTONOMY           = "car_autonomy"
	SENSOR_ID_CAR_PLUG_STATUS        = "car_plug_status"
	SENSOR_ID_CAR_CHARGING_STATUS    = "car_charging_status"
	SENSOR_ID_ENERGY_SINCE_CONNECTED = "energy_since_connected"
	SENSOR_ID_OPERATING_MODE         = "operating_mode"
	SWITCH_ID_SURPLUS_MODE           = "surplus_mode"
	SWITCH_ID_SOC_PROTECTION         = "soc_protection"
	STATE_CLASS_MEASUREMENT          = "measurement"
	STATE_CLASS_TOTAL_INCREASING     = "total_increasing"
	DEVICE_CLASS_BATTERY             = "battery"
	DEVICE_CLASS_CURRENT             = "current"
	DEVICE_CLASS_DISTANCE            = "distance"
	DEVICE_CLASS_ENERGY              = "energy"
	DEVICE_CLASS_POWER               = "power"
	DEVICE_CLASS_CONNECTIVITY        = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC          = "diagnostic"
	ENTITY_CLASS_CONFIG              = "config"
	SENSOR_TYPE_SENSOR               = "sensor"
	SENSOR_TYPE_BINARY               = "binary_sensor"
)

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("surplus2goe_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "Surplus2goe",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Surplus2goe %s", md5HashShort(baseTopic)),
	}
}

func WallboxDevice(host string) Device {
	return Device{
		Id:           fmt.Sprintf("s2g_wallbox_%s", md5HashShort(host)),
		Manufacturer: "go-e",
		Model:        "Charger",
		Name:         fmt.Sprintf("go-e Charger %s", md5HashShort(host)),
	}
}

func VehicleDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("s2g_vehicle_%s", md5HashShort(baseTopic)),
		Manufacturer: "Renault",
		Model:        "EV",
		Name:         fmt.Sprintf("Renault EV %s", md5HashShort(baseTopic)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	// PV Power
	sensors = append(sensors, GenericSensor{
		Device:            bridgeDevice,
		Id:                SENSOR_ID_PV_POWER,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "PV power",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "kW",
		Icon:              "mdi:solar-power",
		UniqueId:          uniqueId(bridgeDevice.Id, SENSOR_ID_PV_POWER),
	})

	// Grid Power Flow
	sensors = append(sensors, GenericSensor{
		Device:            bridgeDevice,
		Id:                SENSOR_ID_GRID_POWER,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Grid power flow",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "kW",
		UniqueId:          uniqueId(bridgeDevice.Id, SENSOR_ID_GRID_POWER),
	})

	// Available Surplus Power
	sensors = append(sensors, GenericSensor{
		Device:            bridgeDevice,
		Id:                SENSOR_ID_AVAILABLE_POWER,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Available surplus power",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "kW",
		Icon:              "mdi:home-lightning-bolt",
		UniqueId:          uniqueId(bridgeDevice.Id, SENSOR_ID_AVAILABLE_POWER),
	})

	// Grid Power Average
	sensors = append(sensors, GenericSensor{
		Device:            bridgeDevice,
		Id:                SENSOR_ID_GRID_POWER_AVG,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Grid power average",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "kW",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(bridgeDevice.Id, SENSOR_ID_GRID_POWER_AVG),
	})

	// Available Surplus Power Average
	sensors = append(sensors, GenericSensor{
		Device:            bridgeDevice,
		Id:                SENSOR_ID_AVAILABLE_POWER_AVG,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Available surplus power average",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "kW",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(bridgeDevice.Id, SENSOR_ID_AVAILABLE_POWER_AVG),
	})

	// Operating Mode
	sensors = append(sensors, GenericSensor{
		Device:     bridgeDevice,
		Id:         SENSOR_ID_OPERATING_MODE,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Operating mode",
		Icon:       "mdi:car-electric",
		UniqueId:   uniqueId(bridgeDevice.Id, SENSOR_ID_OPERATING_MODE),
	})

	return sensors
}

func WallboxSensors(wallboxDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Wallbox Charge Power
	sensors = append(sensors, GenericSensor{
		Device:            wallboxDevice,
		Id:                SENSOR_ID_WALLBOX_POWER,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Charge power",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "kW",
		UniqueId:          uniqueId(wallboxDevice.Id, SENSOR_ID_WALLBOX_POWER),
	})

	// Wallbox Charge Power Average
	sensors = append(sensors, GenericSensor{
		Device:            wallboxDevice,
		Id:                SENSOR_ID_WALLBOX_POWER_AVG,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Charge power average",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_POWER,
		UnitOfMeasurement: "kW",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(wallboxDevice.Id, SENSOR_ID_WALLBOX_POWER_AVG),
	})

	// Commanded Phase Mode
	sensors = append(sensors, GenericSensor{
		Device:     wallboxDevice,
		Id:         SENSOR_ID_CHARGE_PHASE,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Charge phases",
		StateClass: STATE_CLASS_MEASUREMENT,
		UniqueId:   uniqueId(wallboxDevice.Id, SENSOR_ID_CHARGE_PHASE),
	})

	// Commanded Charge Current
	sensors = append(sensors, GenericSensor{
		Device:            wallboxDevice,
		Id:                SENSOR_ID_CHARGE_CURRENT,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Charge current",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_CURRENT,
		UnitOfMeasurement: "A",
		UniqueId:          uniqueId(wallboxDevice.Id, SENSOR_ID_CHARGE_CURRENT),
	})

	// Car State
	sensors = append(sensors, GenericSensor{
		Device:     wallboxDevice,
		Id:         SENSOR_ID_CAR_STATE,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Car state",
		UniqueId:   uniqueId(wallboxDevice.Id, SENSOR_ID_CAR_STATE),
	})

	// Energy Since Connected
	sensors = append(sensors, GenericSensor{
		Device:            wallboxDevice,
		Id:                SENSOR_ID_ENERGY_SINCE_CONNECTED,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Energy since connected",
		StateClass:        STATE_CLASS_TOTAL_INCREASING,
		DeviceClass:       DEVICE_CLASS_ENERGY,
		UnitOfMeasurement: "Wh",
		UniqueId:          uniqueId(wallboxDevice.Id, SENSOR_ID_ENERGY_SINCE_CONNECTED),
	})

	return sensors
}

func VehicleSensors(vehicleDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Car battery SoC
	sensors = append(sensors, GenericSensor{
		Device:            vehicleDevice,
		Id:                SENSOR_ID_CAR_SOC,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Battery SoC",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_BATTERY,
		UnitOfMeasurement: "%",
		UniqueId:          uniqueId(vehicleDevice.Id, SENSOR_ID_CAR_SOC),
	})

	// Car Autonomy
	sensors = append(sensors, GenericSensor{
		Device:            vehicleDevice,
		Id:                SENSOR_ID_CAR_AUTONOMY,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Autonomy",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_DISTANCE,
		UnitOfMeasurement: "km",
		UniqueId:          uniqueId(vehicleDevice.Id, SENSOR_ID_CAR_AUTONOMY),
	})

	// Car Plug Status
	sensors = append(sensors, GenericSensor{
		Device:           vehicleDevice,
		Id:               SENSOR_ID_CAR_PLUG_STATUS,
		SensorType:       SENSOR_TYPE_SENSOR,
		Name:             "Plug status",
		Icon:             "mdi:power-plug",
		EnabledByDefault: optionalBool(false),
		UniqueId:         uniqueId(vehicleDevice.Id, SENSOR_ID_CAR_PLUG_STATUS),
	})

	// Car Charging Status
	sensors = append(sensors, GenericSensor{
		Device:           vehicleDevice,
		Id:               SENSOR_ID_CAR_CHARGING_STATUS,
		SensorType:       SENSOR_TYPE_SENSOR,
		Name:             "Charging status",
		Icon:             "mdi:battery-charging",
		EnabledByDefault: optionalBool(false),
		UniqueId:         uniqueId(vehicleDevice.Id, SENSOR_ID_CAR_CHARGING_STATUS),
	})

	return sensors
}

func ControlSwitches(bridgeDevice Device) []GenericSwitch {

	var switches []GenericSwitch

	// Surplus charging mode
	switches = append(switches, GenericSwitch{
		Device:   bridgeDevice,
		Id:       SWITCH_ID_SURPLUS_MODE,
		Name:     "Surplus charging",
		UniqueId: uniqueId(bridgeDevice.Id, SWITCH_ID_SURPLUS_MODE),
		Icon:     "mdi:solar-power",
	})
	// SoC protection
	switches = append(switches, GenericSwitch{
		Device:   bridgeDevice,
		Id:       SWITCH_ID_SOC_PROTECTION,
		Name:     "SoC protection",
		UniqueId: uniqueId(bridgeDevice.Id, SWITCH_ID_SOC_PROTECTION),
		Icon:     "mdi:battery-heart-variant",
	})

	return switches
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
