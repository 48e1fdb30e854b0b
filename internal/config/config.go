package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel   zapcore.Level
	GridMeter  GridMeterConfig  `mapstructure:"grid_meter"`
	Inverter   InverterConfig   `mapstructure:"inverter"`
	Wallbox    WallboxConfig    `mapstructure:"wallbox"`
	Vehicle    VehicleConfig    `mapstructure:"vehicle"`
	Control    ControlConfig    `mapstructure:"control"`
	Controller ControllerConfig `mapstructure:"controller"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`

	Port    uint `mapstructure:"port"`
	HttpLog bool `mapstructure:"http_log"`
}

type GridMeterConfig struct {
	Host           string
	SensorName     string `mapstructure:"sensor_name"`
	TimeoutSeconds uint   `mapstructure:"timeout_seconds"`
}

type InverterConfig struct {
	Host           string
	Port           uint
	UnitId         uint `mapstructure:"unit_id"`
	TimeoutSeconds uint `mapstructure:"timeout_seconds"`
}

type WallboxConfig struct {
	Host           string
	ModbusPort     uint `mapstructure:"modbus_port"`
	ModbusUnitId   uint `mapstructure:"modbus_unit_id"`
	TimeoutSeconds uint `mapstructure:"timeout_seconds"`
	ControlEnable  bool `mapstructure:"control_enable"`
}

type VehicleConfig struct {
	Enable         bool
	Email          string
	Password       string
	Locale         string
	TimeoutSeconds uint `mapstructure:"timeout_seconds"`
}

type ControlConfig struct {
	TickIntervalSeconds uint                `mapstructure:"tick_interval_seconds"`
	GridSampleEvery     uint                `mapstructure:"grid_sample_every"`
	ControlPeriod       uint                `mapstructure:"control_period"`
	CarStatusPeriod     uint                `mapstructure:"car_status_period"`
	BatterySaving       BatterySavingConfig `mapstructure:"battery_saving"`
}

type BatterySavingConfig struct {
	Enable        bool
	CheckPeriod   uint    `mapstructure:"check_period"`
	SocLimit      float64 `mapstructure:"soc_limit"`
	MaxAgeSeconds uint    `mapstructure:"max_age_seconds"`
}

type ControllerConfig struct {
	PhaseUpStartKW  float64 `mapstructure:"phase_up_start_kw"`
	PhaseUpKW       float64 `mapstructure:"phase_up_kw"`
	PhaseDownKW     float64 `mapstructure:"phase_down_kw"`
	ChargeStartKW   float64 `mapstructure:"charge_start_kw"`
	ChargeStopKW    float64 `mapstructure:"charge_stop_kw"`
	MinCurrentA     int     `mapstructure:"min_current_a"`
	MaxCurrentA     int     `mapstructure:"max_current_a"`
	ReservedPowerKW float64 `mapstructure:"reserved_power_kw"`
}

type MQTTConfig struct {
	Enable            bool
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
