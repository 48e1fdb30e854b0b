package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/surplus2goe/internal/adapter/actor"
	"github.com/berfenger/surplus2goe/internal/config"
	"github.com/berfenger/surplus2goe/internal/core/actor"
	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/internal/core/service"
	"github.com/berfenger/surplus2goe/internal/core/status"
	"github.com/berfenger/surplus2goe/internal/server"
	"github.com/berfenger/surplus2goe/internal/util/actorutil"
	"github.com/berfenger/surplus2goe/pkg/goe"
	"github.com/berfenger/surplus2goe/pkg/kostal"
	"github.com/berfenger/surplus2goe/pkg/renault"
	"github.com/berfenger/surplus2goe/pkg/tasmota"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// init devices actor provider
	devicesProv, err := devicesActorProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	// init vehicle actor provider (nil when the vehicle account is not configured)
	vehicleProv, err := vehicleActorProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	store := status.NewStore(domain.MODE_PV_SURPLUS, cfg.Control.BatterySaving.Enable)

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, store, devicesProv, vehicleProv, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid, store)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => SURPLUS2GOE_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("SURPLUS2GOE_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("surplus2goe")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// discovery needs a broker
	if !cfg.MQTT.Enable {
		cfg.MQTT.HADiscoveryEnable = false
	}

	// required hosts
	if cfg.GridMeter.Host == "" {
		return nil, errors.New("config param grid_meter.host is required")
	}
	if cfg.Inverter.Host == "" {
		return nil, errors.New("config param inverter.host is required")
	}
	if cfg.Wallbox.Host == "" {
		return nil, errors.New("config param wallbox.host is required")
	}
	if cfg.Vehicle.Enable && (cfg.Vehicle.Email == "" || cfg.Vehicle.Password == "") {
		return nil, errors.New("config params vehicle.email and vehicle.password are required when vehicle.enable is set")
	}

	// check bounds
	if cfg.Control.TickIntervalSeconds < 1 {
		return nil, errors.New("config param control.tick_interval_seconds should be >= 1")
	}
	if cfg.Control.GridSampleEvery < 1 {
		return nil, errors.New("config param control.grid_sample_every should be >= 1")
	}
	if cfg.Control.ControlPeriod < 1 {
		return nil, errors.New("config param control.control_period should be >= 1")
	}
	if cfg.Control.CarStatusPeriod < 1 {
		return nil, errors.New("config param control.car_status_period should be >= 1")
	}
	if cfg.Control.BatterySaving.CheckPeriod < 1 {
		return nil, errors.New("config param control.battery_saving.check_period should be >= 1")
	}
	if cfg.Control.GridSampleEvery > cfg.Control.ControlPeriod {
		return nil, errors.New("config param control.grid_sample_every should be <= control.control_period")
	}
	if cfg.Control.BatterySaving.SocLimit < 0 || cfg.Control.BatterySaving.SocLimit > 100 {
		return nil, errors.New("config param control.battery_saving.soc_limit should be between 0 and 100")
	}
	if cfg.Controller.PhaseDownKW >= cfg.Controller.PhaseUpKW {
		return nil, errors.New("config param controller.phase_down_kw should be < controller.phase_up_kw")
	}
	if cfg.Controller.PhaseUpKW > cfg.Controller.PhaseUpStartKW {
		return nil, errors.New("config param controller.phase_up_kw should be <= controller.phase_up_start_kw")
	}
	if cfg.Controller.MinCurrentA <= 0 {
		return nil, errors.New("config param controller.min_current_a should be > 0")
	}
	if cfg.Controller.MinCurrentA > cfg.Controller.MaxCurrentA {
		return nil, errors.New("config param controller.min_current_a should be <= controller.max_current_a")
	}

	return &cfg, nil
}

func devicesActorProvider(cfg *config.Config, logger *zap.Logger) (actor.DevicesActorProvider, error) {

	gridMeter := tasmota.CreateTasmotaPowerReader(cfg.GridMeter.Host, cfg.GridMeter.SensorName,
		time.Duration(cfg.GridMeter.TimeoutSeconds)*time.Second, logger)

	inverter, err := kostal.CreateKostalModbusReader(cfg.Inverter.Host, cfg.Inverter.Port,
		uint8(cfg.Inverter.UnitId), time.Duration(cfg.Inverter.TimeoutSeconds)*time.Second, logger, nil)
	if err != nil {
		return nil, err
	}

	wallboxMeter, err := goe.CreateGoeModbusReader(cfg.Wallbox.Host, cfg.Wallbox.ModbusPort,
		uint8(cfg.Wallbox.ModbusUnitId), time.Duration(cfg.Wallbox.TimeoutSeconds)*time.Second, logger, nil)
	if err != nil {
		return nil, err
	}

	// without control_enable the charger is observed but never commanded
	var charger goe.ChargerClient
	if cfg.Wallbox.ControlEnable {
		charger = goe.CreateHTTPChargerClient(cfg.Wallbox.Host,
			time.Duration(cfg.Wallbox.TimeoutSeconds)*time.Second, logger)
	}
	commander := &service.DefaultChargerCommander{
		Charger: charger,
		Logger:  logger,
	}

	return func() *adactor.DevicesActor {
		return adactor.NewDevicesActor(gridMeter, inverter, wallboxMeter, charger, commander, logger)
	}, nil
}

func vehicleActorProvider(cfg *config.Config, logger *zap.Logger) (actor.VehicleActorProvider, error) {
	if !cfg.Vehicle.Enable {
		return nil, nil
	}
	client, err := renault.CreateCloudStatusClient(renault.Config{
		Email:    cfg.Vehicle.Email,
		Password: cfg.Vehicle.Password,
		Locale:   cfg.Vehicle.Locale,
		Timeout:  time.Duration(cfg.Vehicle.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		return nil, err
	}
	return func() *adactor.VehicleActor {
		return adactor.NewVehicleActor(client, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(stream *eventstream.EventStream) *adactor.MQTTActor {
		if cfg.MQTT.Enable {
			return adactor.NewMQTTActor(cfg, stream, logger)
		}
		return adactor.NewTestMQTTActor(cfg, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("port", 8080)
	viper.SetDefault("http_log", false)
	viper.SetDefault("grid_meter.sensor_name", "MT631")
	viper.SetDefault("grid_meter.timeout_seconds", 5)
	viper.SetDefault("inverter.port", 1502)
	viper.SetDefault("inverter.unit_id", 71)
	viper.SetDefault("inverter.timeout_seconds", 5)
	viper.SetDefault("wallbox.modbus_port", 502)
	viper.SetDefault("wallbox.modbus_unit_id", 1)
	viper.SetDefault("wallbox.timeout_seconds", 5)
	viper.SetDefault("wallbox.control_enable", true)
	viper.SetDefault("vehicle.enable", false)
	viper.SetDefault("vehicle.locale", "de_DE")
	viper.SetDefault("vehicle.timeout_seconds", 15)
	viper.SetDefault("control.tick_interval_seconds", 1)
	viper.SetDefault("control.grid_sample_every", 10)
	viper.SetDefault("control.control_period", 300)
	viper.SetDefault("control.car_status_period", 300)
	viper.SetDefault("control.battery_saving.enable", true)
	viper.SetDefault("control.battery_saving.check_period", 60)
	viper.SetDefault("control.battery_saving.soc_limit", 80)
	viper.SetDefault("control.battery_saving.max_age_seconds", 900)
	viper.SetDefault("controller.phase_up_start_kw", 7.0)
	viper.SetDefault("controller.phase_up_kw", 5.8)
	viper.SetDefault("controller.phase_down_kw", 3.5)
	viper.SetDefault("controller.charge_start_kw", 2.0)
	viper.SetDefault("controller.charge_stop_kw", 1.0)
	viper.SetDefault("controller.min_current_a", 10)
	viper.SetDefault("controller.max_current_a", 16)
	viper.SetDefault("controller.reserved_power_kw", 0.0)
	viper.SetDefault("mqtt.enable", false)
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.base_topic", "surplus2goe")
	viper.SetDefault("mqtt.ha_discovery_enable", true)
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.Vehicle.Email = "*redacted*"
	cfg.Vehicle.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
