package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/surplus2goe/internal/config"
	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HADiscoveryActor publishes the Home Assistant discovery messages once the
// devices and MQTT actors are up. The entity set is static, it only depends
// on the configuration.
type HADiscoveryActor struct {
	config              *config.Config
	behavior            actor.Behavior
	stash               *actorutil.Stash
	devicesActor        *actor.PID
	mqttActor           *actor.PID
	devicesActorHealthy bool
	mqttActorHealthy    bool
	healthyRecv         int

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, devicesActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:       config,
		devicesActor: devicesActor,
		mqttActor:    mqttActor,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// check devices and MQTT actor healthy
		state.healthyRecv = 0
		state.devicesActorHealthy = false
		state.mqttActorHealthy = false
		// devices actor request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.devicesActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_DEVICES,
				Healthy: false,
			}
		})
		// MQTT actor request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_DEVICES:
				state.devicesActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.devicesActorHealthy && state.mqttActorHealthy {
				state.publishDiscovery(ctx)
				state.behavior.Become(state.Done)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or devices Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) publishDiscovery(ctx actor.Context) {

	var sensors []domain.GenericSensor
	var switches []domain.GenericSwitch

	bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
	bridgeSensors := domain.BridgeSensors(bridgeDevice)
	sensors = append(sensors, bridgeSensors...)

	wallboxDevice := domain.WallboxDevice(state.config.Wallbox.Host)
	wallboxDevice.ViaDevice = bridgeDevice.Id
	wallboxSensors := domain.WallboxSensors(wallboxDevice)
	for i := range wallboxSensors {
		if i > 0 {
			wallboxSensors[i].Device = domain.IdDevice(wallboxDevice)
		}
		sensors = append(sensors, wallboxSensors[i])
	}

	if state.config.Vehicle.Enable {
		vehicleDevice := domain.VehicleDevice(state.config.MQTT.BaseTopic)
		vehicleDevice.ViaDevice = bridgeDevice.Id
		vehicleSensors := domain.VehicleSensors(vehicleDevice)
		for i := range vehicleSensors {
			if i > 0 {
				vehicleSensors[i].Device = domain.IdDevice(vehicleDevice)
			}
			sensors = append(sensors, vehicleSensors[i])
		}
	}

	switches = append(switches, domain.ControlSwitches(bridgeDevice)...)

	state.logger.Debug("hadiscovery: publishing discovery",
		zap.Int("sensors", len(sensors)), zap.Int("switches", len(switches)))

	ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
		Sensors:  sensors,
		Switches: switches,
	})
}
