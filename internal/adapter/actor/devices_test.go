package actor

import (
	"testing"
	"time"

	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/internal/core/service"
	"github.com/berfenger/surplus2goe/internal/util/actorutil"
	"github.com/berfenger/surplus2goe/pkg/goe"
	"github.com/berfenger/surplus2goe/pkg/kostal"
	"github.com/berfenger/surplus2goe/pkg/tasmota"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetLiveTelemetryDevicesActor(t *testing.T) {

	assert := assert.New(t)

	gridMeter := tasmota.CreateTestPowerReader(-2.5)

	inverter, err := kostal.CreateTestInverterReader(3.2)
	if err != nil {
		t.Error(err)
		return
	}

	wallboxMeter, err := goe.CreateTestModbusReader(1.8, 2)
	if err != nil {
		t.Error(err)
		return
	}

	charger := goe.CreateTestChargerClient(goe.ChargerStatus{
		CarState:               goe.CarStateCharging,
		PhaseMode:              goe.OptionalInt(1),
		AmpereAllowed:          goe.OptionalInt(10),
		EnergySinceConnectedWh: goe.OptionalFloat(1234),
	})

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDevicesActor(gridMeter, inverter, wallboxMeter, charger, nil, logger)
	})
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetLiveTelemetryRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetLiveTelemetryResponse)

	assert.Equal(*resp.PVPowerKW, 3.2, "pv power")
	assert.Equal(*resp.GridPowerKW, -2.5, "grid power")
	assert.Equal(*resp.WallboxPowerKW, 1.8, "wallbox power")
	assert.Equal(*resp.CarState, goe.CarStateCharging, "car state")
	assert.Equal(*resp.ChargePhase, 1, "charge phase")
	assert.Equal(*resp.ChargeCurrentA, 10, "charge current")
	assert.Equal(*resp.EnergySinceConnectedWh, 1234.0, "energy since connected")

	context.Stop(pid)

	as.Shutdown()
}

func TestGetLiveTelemetryCarStateOverModbus(t *testing.T) {

	assert := assert.New(t)

	gridMeter := tasmota.CreateTestPowerReader(0.4)

	inverter, err := kostal.CreateTestInverterReader(0.0)
	if err != nil {
		t.Error(err)
		return
	}

	wallboxMeter, err := goe.CreateTestModbusReader(0.0, 1)
	if err != nil {
		t.Error(err)
		return
	}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	// no HTTP charger client, car state should come from the modbus register
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDevicesActor(gridMeter, inverter, wallboxMeter, nil, nil, logger)
	})
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetLiveTelemetryRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetLiveTelemetryResponse)

	assert.Equal(*resp.CarState, goe.CarStateIdle, "car state")
	assert.Nil(resp.ChargePhase, "no phase without control endpoint")
	assert.Nil(resp.ChargeCurrentA, "no current without control endpoint")

	context.Stop(pid)

	as.Shutdown()
}

func TestGetWallboxPowerDevicesActor(t *testing.T) {

	assert := assert.New(t)

	wallboxMeter, err := goe.CreateTestModbusReader(7.36, 2)
	if err != nil {
		t.Error(err)
		return
	}

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDevicesActor(nil, nil, wallboxMeter, nil, nil, logger)
	})
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetWallboxPowerRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetWallboxPowerResponse)

	assert.Equal(resp.PowerKW, 7.36, "wallbox power")

	context.Stop(pid)

	as.Shutdown()
}

func TestApplyChargerCommandDevicesActor(t *testing.T) {

	assert := assert.New(t)

	wallboxMeter, err := goe.CreateTestModbusReader(0.0, 3)
	if err != nil {
		t.Error(err)
		return
	}

	charger := goe.CreateTestChargerClient(goe.ChargerStatus{
		CarState:      goe.CarStateWaiting,
		PhaseMode:     goe.OptionalInt(1),
		AmpereAllowed: goe.OptionalInt(10),
	})

	logger := zap.Must(zap.NewDevelopment())

	commander := &service.DefaultChargerCommander{
		Charger: charger,
		Logger:  logger,
	}

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDevicesActor(nil, nil, wallboxMeter, charger, commander, logger)
	})
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.ApplyChargerCommandRequest{Phase: 3, CurrentA: 13}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.ApplyChargerCommandResponse)

	assert.False(resp.HasResponseError(), "no command error")
	assert.True(resp.Applied, "command applied")
	assert.Equal(charger.Calls, []string{"phase=3", "ampere=13", "charging=true"}, "command sequence")

	context.Stop(pid)

	as.Shutdown()
}
