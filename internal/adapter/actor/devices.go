package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/internal/core/port"
	"github.com/berfenger/surplus2goe/internal/util/actorutil"
	"github.com/berfenger/surplus2goe/pkg/goe"
	"github.com/berfenger/surplus2goe/pkg/kostal"
	"github.com/berfenger/surplus2goe/pkg/tasmota"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// DevicesActor serializes access to the field devices: the grid meter, the
// inverter, the wallbox energy meter and the wallbox control endpoint.
// Reads and commands run as background tasks so the actor never blocks.
type DevicesActor struct {
	behavior     actor.Behavior
	stash        *actorutil.Stash
	gridMeter    tasmota.PowerReader
	inverter     kostal.InverterReader
	wallboxMeter goe.ChargerModbusReader
	charger      goe.ChargerClient
	commander    port.ChargerCommander
	logger       *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewDevicesActor(gridMeter tasmota.PowerReader, inverter kostal.InverterReader,
	wallboxMeter goe.ChargerModbusReader, charger goe.ChargerClient,
	commander port.ChargerCommander, logger *zap.Logger) *DevicesActor {
	act := &DevicesActor{
		gridMeter:    gridMeter,
		inverter:     inverter,
		wallboxMeter: wallboxMeter,
		charger:      charger,
		commander:    commander,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_DEVICES, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *DevicesActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DevicesActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("devices@starting started")
		if state.inverter != nil {
			err := state.inverter.Open()
			if err != nil {
				panic(err)
			}
		}
		if state.wallboxMeter != nil {
			err := state.wallboxMeter.Open()
			if err != nil {
				panic(err)
			}
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.closeDevices()
	default:
		state.logger.Debug("devices@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *DevicesActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("devices@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DEVICES,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetLiveTelemetryRequest:
		state.logger.Debug("devices@default: GetLiveTelemetryRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getLiveTelemetry),
			mapTaskResult[domain.GetLiveTelemetryResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetLiveTelemetryResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(10 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingDevices)
	case domain.GetWallboxPowerRequest:
		state.logger.Debug("devices@default: GetWallboxPowerRequest")
		sender := ctx.Sender()
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getWallboxPower),
			mapTaskResult[domain.GetWallboxPowerResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetWallboxPowerResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingDevices)
	case domain.ApplyChargerCommandRequest:
		state.logger.Debug("devices@default: ApplyChargerCommandRequest",
			zap.Int("phase", msg.Phase), zap.Int("current", msg.CurrentA))
		sender := ctx.Sender()
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.ApplyChargerCommandResponse, error) {
			return state.applyChargerCommand(msg.Phase, msg.CurrentA)
		}),
			mapTaskResult[domain.ApplyChargerCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.ApplyChargerCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(15 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingDevices)
	case *actor.Stopping:
		state.closeDevices()
	default:
		state.logger.Debug("devices@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *DevicesActor) WaitingDevices(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("devices@WaitingDevices backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.closeDevices()
	default:
		state.logger.Debug("devices@WaitingDevices stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *DevicesActor) closeDevices() {
	if state.inverter != nil {
		state.inverter.Close()
	}
	if state.wallboxMeter != nil {
		state.wallboxMeter.Close()
	}
}

// getLiveTelemetry polls every device once. Each read fails independently and
// leaves its field nil so one dead device does not blind the others.
func (a *DevicesActor) getLiveTelemetry() (*domain.GetLiveTelemetryResponse, error) {
	var resp domain.GetLiveTelemetryResponse

	if a.inverter != nil {
		pv, err := a.inverter.ReadTotalPowerKW()
		if err != nil {
			logger.Error(err)
		} else {
			resp.PVPowerKW = &pv
		}
	}
	if a.gridMeter != nil {
		grid, err := a.gridMeter.ReadPowerKW()
		if err != nil {
			logger.Error(err)
		} else {
			resp.GridPowerKW = &grid
		}
	}
	if a.wallboxMeter != nil {
		wb, err := a.wallboxMeter.ReadPowerKW()
		if err != nil {
			logger.Error(err)
		} else {
			resp.WallboxPowerKW = &wb
		}
	}
	if a.charger != nil {
		status, err := a.charger.GetStatus()
		if err != nil {
			logger.Error(err)
		} else {
			resp.CarState = &status.CarState
			resp.ChargePhase = status.PhaseMode
			resp.ChargeCurrentA = status.AmpereAllowed
			resp.EnergySinceConnectedWh = status.EnergySinceConnectedWh
		}
	} else if a.wallboxMeter != nil {
		// without the control endpoint the car state is still available over modbus
		code, err := a.wallboxMeter.ReadCarStateCode()
		if err != nil {
			logger.Error(err)
		} else {
			carState := goe.CarStateFromCode(code)
			resp.CarState = &carState
		}
	}
	return &resp, nil
}

func (a *DevicesActor) getWallboxPower() (*domain.GetWallboxPowerResponse, error) {
	var power float64
	var err error

	if a.wallboxMeter != nil {
		power, err = a.wallboxMeter.ReadPowerKW()
		if err != nil {
			logger.Error(err)
			return nil, err
		}
	}
	return &domain.GetWallboxPowerResponse{
		PowerKW: power,
	}, nil
}

func (a *DevicesActor) applyChargerCommand(phase int, current int) (*domain.ApplyChargerCommandResponse, error) {
	if a.commander == nil {
		return &domain.ApplyChargerCommandResponse{}, nil
	}
	applied, err := a.commander.Apply(phase, current)
	if err != nil {
		logger.Error(err)
		return &domain.ApplyChargerCommandResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}, nil
	}
	return &domain.ApplyChargerCommandResponse{
		Applied: applied,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
