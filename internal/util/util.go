package util

import (
	"github.com/berfenger/surplus2goe/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		GridMeter: config.GridMeterConfig{
			Host:           "-.-.-.-",
			SensorName:     "SML",
			TimeoutSeconds: 2,
		},
		Inverter: config.InverterConfig{
			Host:           "-.-.-.-",
			Port:           1502,
			UnitId:         71,
			TimeoutSeconds: 2,
		},
		Wallbox: config.WallboxConfig{
			Host:           "-.-.-.-",
			ModbusPort:     502,
			ModbusUnitId:   1,
			TimeoutSeconds: 2,
			ControlEnable:  true,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "surplus2goe",
		},
		Control: config.ControlConfig{
			TickIntervalSeconds: 1,
			GridSampleEvery:     10,
			ControlPeriod:       300,
			CarStatusPeriod:     300,
			BatterySaving: config.BatterySavingConfig{
				Enable:        true,
				CheckPeriod:   60,
				SocLimit:      80,
				MaxAgeSeconds: 900,
			},
		},
		Controller: config.ControllerConfig{
			PhaseUpStartKW:  7.0,
			PhaseUpKW:       5.8,
			PhaseDownKW:     3.5,
			ChargeStartKW:   2.0,
			ChargeStopKW:    1.0,
			MinCurrentA:     10,
			MaxCurrentA:     16,
			ReservedPowerKW: 0,
		},
		Port: 8080,
	}
}
