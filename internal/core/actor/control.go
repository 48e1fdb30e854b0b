package actor

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/berfenger/surplus2goe/internal/config"
	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/internal/core/events"
	"github.com/berfenger/surplus2goe/internal/core/port"
	"github.com/berfenger/surplus2goe/internal/core/service"
	"github.com/berfenger/surplus2goe/internal/core/status"
	. "github.com/berfenger/surplus2goe/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// ControlActor runs the periodic control loop. Every tick it refreshes the
// live status, samples the grid meter and, when a control evaluation is due,
// feeds the windowed averages to the surplus control logic and applies the
// resulting charger command. All device I/O goes through the devices actor,
// so a tick is a short chain of states awaiting one response each.
type ControlActor struct {
	ActorWithStates
	scheduler    *scheduler.TimerScheduler
	stash        *Stash
	devicesActor *actor.PID
	vehicleActor *actor.PID
	config       *config.Config
	eventStream  *eventstream.EventStream
	store        *status.Store
	control      port.SurplusControlLogic
	socPolicy    port.BatterySavingPolicy
	window       *service.SampleWindow

	tickInterval    time.Duration
	gridSampleEvery uint
	controlPeriod   uint
	carStatusPeriod uint
	socCheckPeriod  uint

	gridCounter      uint
	controlCounter   uint
	carStatusCounter uint
	socCounter       uint

	logger *zap.Logger
}

type controlTick struct {
}

func NewControlActor(config *config.Config, devicesActor *actor.PID, vehicleActor *actor.PID,
	store *status.Store, eventStream *eventstream.EventStream, logger *zap.Logger) *ControlActor {
	act := &ControlActor{
		config:       config,
		devicesActor: devicesActor,
		vehicleActor: vehicleActor,
		store:        store,
		eventStream:  eventStream,
		stash:        &Stash{},
		logger:       ActorLogger(domain.ACTOR_ID_CONTROL, logger),
		control: service.CreateSurplusControlLogic(domain.ControllerParams{
			PhaseUpStartKW:  config.Controller.PhaseUpStartKW,
			PhaseUpKW:       config.Controller.PhaseUpKW,
			PhaseDownKW:     config.Controller.PhaseDownKW,
			ChargeStartKW:   config.Controller.ChargeStartKW,
			ChargeStopKW:    config.Controller.ChargeStopKW,
			MinCurrentA:     config.Controller.MinCurrentA,
			MaxCurrentA:     config.Controller.MaxCurrentA,
			ReservedPowerKW: config.Controller.ReservedPowerKW,
		}, logger),
		socPolicy: &service.DefaultBatterySavingPolicy{
			SocLimit: config.Control.BatterySaving.SocLimit,
			MaxAge:   time.Duration(config.Control.BatterySaving.MaxAgeSeconds) * time.Second,
			Logger:   logger,
		},
		window:          service.NewSampleWindow(maxGridSamples(config.Control)),
		tickInterval:    time.Duration(config.Control.TickIntervalSeconds) * time.Second,
		gridSampleEvery: config.Control.GridSampleEvery,
		controlPeriod:   config.Control.ControlPeriod,
		carStatusPeriod: config.Control.CarStatusPeriod,
		socCheckPeriod:  config.Control.BatterySaving.CheckPeriod,
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(ControlStartingState{
		actor: act,
	})
	return act
}

func (state *ControlActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// maxGridSamples is the window capacity: one sample per grid sampling slot
// of a full control period.
func maxGridSamples(cfg config.ControlConfig) int {
	if cfg.GridSampleEvery == 0 {
		return int(cfg.ControlPeriod)
	}
	return int(cfg.ControlPeriod / cfg.GridSampleEvery)
}

// Starting state

type ControlStartingState struct {
	ActorState
	actor *ControlActor
}

func (state ControlStartingState) Name() string {
	return "starting"
}

func (state ControlStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("control@starting started")

		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)

		state.actor.publishEvents(events.OperatingModeUpdateEvents(state.actor.store.Mode()))
		state.actor.eventStream.Publish(events.SocProtectionSwitchUpdateEvent(state.actor.store.SocProtectionEnabled()))

		state.actor.Become(ControlRunningState{
			actor: state.actor,
		}.OnEnter(ctx))
		state.actor.stash.UnstashAll(ctx)
	case *actor.Restarting:
	case controlTick:
		// tick armed by a previous incarnation
	default:
		state.actor.logger.Debug("control@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Running state

type ControlRunningState struct {
	ActorState
	actor      *ControlActor
	cancelTick scheduler.CancelFunc
}

func (state ControlRunningState) Name() string {
	return "running"
}

func (state ControlRunningState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("control@running: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CONTROL,
			Healthy: true,
			State:   state.Name(),
		})
	case controlTick:
		state.actor.logger.Debug("control@running tick")
		state.actor.Become(ControlAwaitTelemetryState{
			actor: state.actor,
		}.OnEnterAction(ctx))
	case domain.GetVehicleStatusResponse:
		state.actor.handleVehicleStatus(msg)
	case domain.ControlRequest:
		state.actor.handleControlCommand(ctx, msg)
	case domain.GetLiveTelemetryResponse, domain.GetWallboxPowerResponse, domain.ApplyChargerCommandResponse:
		// can be received after a receive timeout or a restart mid tick
		state.actor.logger.Debug("control@running: stale tick response", zap.String("type", fmt.Sprintf("%T", msg)))
	case *actor.Restarting:
		if state.cancelTick != nil {
			state.cancelTick()
		}
	default:
		state.actor.logger.Debug("control@running: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state ControlRunningState) OnEnter(ctx actor.Context) ControlRunningState {
	state.cancelTick = state.actor.scheduler.RequestOnce(state.actor.tickInterval, ctx.Self(), controlTick{})
	return state
}

// Await live telemetry state

type ControlAwaitTelemetryState struct {
	ActorState
	actor *ControlActor
}

func (state ControlAwaitTelemetryState) Name() string {
	return "awaitTelemetry"
}

func (state ControlAwaitTelemetryState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetLiveTelemetryResponse:
		ctx.SetReceiveTimeout(0)
		state.actor.completeTick(ctx, msg)
	case *actor.ReceiveTimeout:
		ctx.SetReceiveTimeout(0)
		state.actor.logger.Debug("control@awaitTelemetry: ReceiveTimeout")
		state.actor.completeTick(ctx, domain.GetLiveTelemetryResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: errors.New("receive timeout"),
			},
		})
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CONTROL,
			Healthy: true,
			State:   state.Name(),
		})
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("control@awaitTelemetry: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state ControlAwaitTelemetryState) OnEnterAction(ctx actor.Context) ControlAwaitTelemetryState {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.devicesActor,
		domain.GetLiveTelemetryRequest{}, 12*time.Second),
		func(err error) any {
			return domain.GetLiveTelemetryResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	ctx.SetReceiveTimeout(15 * time.Second)
	return state
}

// Await wallbox power state

type ControlAwaitWallboxPowerState struct {
	ActorState
	actor     *ControlActor
	gridAvgKW float64
	stop      bool
}

func (state ControlAwaitWallboxPowerState) Name() string {
	return "awaitWallboxPower"
}

func (state ControlAwaitWallboxPowerState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetWallboxPowerResponse:
		ctx.SetReceiveTimeout(0)
		wallboxKW := 0.0
		if msg.HasResponseError() {
			state.actor.logger.Warn("control@awaitWallboxPower: wallbox power read failed, assuming 0.0 kW",
				zap.Error(msg.GetResponseError()))
		} else {
			wallboxKW = msg.PowerKW
		}
		state.actor.runControl(ctx, state.gridAvgKW, wallboxKW, state.stop)
	case *actor.ReceiveTimeout:
		ctx.SetReceiveTimeout(0)
		state.actor.logger.Warn("control@awaitWallboxPower: ReceiveTimeout, assuming 0.0 kW")
		state.actor.runControl(ctx, state.gridAvgKW, 0.0, state.stop)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CONTROL,
			Healthy: true,
			State:   state.Name(),
		})
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("control@awaitWallboxPower: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state ControlAwaitWallboxPowerState) OnEnterAction(ctx actor.Context) ControlAwaitWallboxPowerState {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.devicesActor,
		domain.GetWallboxPowerRequest{}, 3*time.Second),
		func(err error) any {
			return domain.GetWallboxPowerResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	ctx.SetReceiveTimeout(5 * time.Second)
	return state
}

// Await charger command state

type ControlAwaitApplyState struct {
	ActorState
	actor *ControlActor
}

func (state ControlAwaitApplyState) Name() string {
	return "awaitApply"
}

func (state ControlAwaitApplyState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ApplyChargerCommandResponse:
		ctx.SetReceiveTimeout(0)
		if msg.HasResponseError() {
			state.actor.logger.Error("control@awaitApply: charger command failed", zap.Error(msg.GetResponseError()))
		} else if msg.Applied {
			state.actor.logger.Debug("control@awaitApply: charger command applied")
		}
		state.actor.finishTick(ctx)
	case *actor.ReceiveTimeout:
		ctx.SetReceiveTimeout(0)
		state.actor.logger.Error("control@awaitApply: ReceiveTimeout")
		state.actor.finishTick(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CONTROL,
			Healthy: true,
			State:   state.Name(),
		})
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("control@awaitApply: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state ControlAwaitApplyState) OnEnterAction(ctx actor.Context, phase int, current int) ControlAwaitApplyState {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.devicesActor,
		domain.ApplyChargerCommandRequest{Phase: phase, CurrentA: current}, 20*time.Second),
		func(err error) any {
			return domain.ApplyChargerCommandResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	ctx.SetReceiveTimeout(25 * time.Second)
	return state
}

// Tick processing

// completeTick runs the synchronous part of a tick from the live telemetry
// response: status refresh, grid sampling, vehicle polling and the decision
// whether a control evaluation or a battery saving stop is due. Counters
// advance exactly once per tick no matter which branch runs.
func (state *ControlActor) completeTick(ctx actor.Context, msg domain.GetLiveTelemetryResponse) {
	now := time.Now()

	if msg.HasResponseError() {
		state.logger.Error("control: live telemetry request failed", zap.Error(msg.GetResponseError()))
	}

	update := status.LiveUpdate{Timestamp: now}
	if !msg.HasResponseError() {
		update.PVPowerKW = msg.PVPowerKW
		update.GridPowerKW = msg.GridPowerKW
		update.WallboxPowerKW = msg.WallboxPowerKW
		update.CarState = msg.CarState
		update.ChargePhase = msg.ChargePhase
		update.ChargeCurrentA = msg.ChargeCurrentA
		update.EnergyWh = msg.EnergySinceConnectedWh
		if msg.GridPowerKW != nil && msg.WallboxPowerKW != nil {
			available := math.Max(0, (*msg.WallboxPowerKW-*msg.GridPowerKW)-state.control.ReservedPowerKW())
			update.AvailableNowKW = &available
		}
	}
	state.store.ApplyLiveUpdate(update)
	snapshot := state.store.Snapshot()
	state.publishEvents(events.LiveStatusToUpdateEvents(&snapshot))

	if state.gridCounter == 0 && update.GridPowerKW != nil {
		state.window.Add(*update.GridPowerKW)
	}

	if state.carStatusCounter == 0 && state.vehicleActor != nil {
		state.logger.Debug("control: requesting vehicle status")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.vehicleActor,
			domain.GetVehicleStatusRequest{}, 25*time.Second),
			func(err error) any {
				return domain.GetVehicleStatusResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				}
			})
	}

	mode, justSwitched := state.store.ModeAndSwitchFlag()
	protectionEnabled := state.store.SocProtectionEnabled()

	triggerControl := mode == domain.MODE_PV_SURPLUS && state.window.Count() > 0 &&
		(state.controlCounter == state.controlPeriod-1 || justSwitched)
	socControl := protectionEnabled && mode == domain.MODE_MONITOR_ONLY && state.socCounter == 0

	stopCharge := false
	if protectionEnabled && (triggerControl || socControl) {
		stopCharge = state.socPolicy.Check(&snapshot, now).Stop
	}

	state.gridCounter = (state.gridCounter + 1) % state.gridSampleEvery
	state.controlCounter = (state.controlCounter + 1) % state.controlPeriod
	state.carStatusCounter = (state.carStatusCounter + 1) % state.carStatusPeriod
	state.socCounter = (state.socCounter + 1) % state.socCheckPeriod

	if triggerControl {
		state.Become(ControlAwaitWallboxPowerState{
			actor:     state,
			gridAvgKW: state.window.Mean(),
			stop:      stopCharge,
		}.OnEnterAction(ctx))
		return
	}
	if socControl && stopCharge {
		// confirm the stop even if a previous one was already sent, the
		// charger may have been re-enabled out of band
		phase := 1
		if snapshot.ChargePhase != nil {
			phase = *snapshot.ChargePhase
		}
		state.logger.Info("control: battery saving stop while monitoring", zap.Int("phase", phase))
		state.Become(ControlAwaitApplyState{
			actor: state,
		}.OnEnterAction(ctx, phase, 0))
		return
	}
	state.finishTick(ctx)
}

// runControl feeds the averages to the surplus control logic and applies
// the decision. The wallbox average is the single fresh reading taken for
// this evaluation.
func (state *ControlActor) runControl(ctx actor.Context, gridAvgKW float64, wallboxAvgKW float64, stopCharge bool) {
	result := state.control.Step(gridAvgKW, wallboxAvgKW)

	current := result.Current
	if stopCharge && current > 0 {
		state.logger.Info("control: battery saving active, overriding charge current to 0")
		current = 0
	}

	state.store.ApplyControlResult(gridAvgKW, wallboxAvgKW, result)
	state.window.Reset()
	snapshot := state.store.Snapshot()
	state.publishEvents(events.ControlAveragesToUpdateEvents(&snapshot))

	state.Become(ControlAwaitApplyState{
		actor: state,
	}.OnEnterAction(ctx, result.Phase, current))
}

func (state *ControlActor) finishTick(ctx actor.Context) {
	state.Become(ControlRunningState{
		actor: state,
	}.OnEnter(ctx))
	state.stash.UnstashAll(ctx)
}

// Command handling

func (state *ControlActor) handleControlCommand(ctx actor.Context, msg domain.ControlRequest) {
	switch cmd := msg.(type) {
	case domain.SetOperatingModeRequest:
		mode, err := state.store.SetMode(cmd.Mode)
		if err != nil {
			state.logger.Warn("control: rejected operating mode", zap.String("mode", cmd.Mode), zap.Error(err))
			ForRequest(msg).Respond(ctx, domain.SetOperatingModeResponse{
				ControlResponseMixIn: domain.ControlResponseMixIn{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
			})
			return
		}
		state.logger.Info("control: operating mode changed", zap.String("mode", string(mode)))
		state.publishEvents(events.OperatingModeUpdateEvents(mode))
		ForRequest(msg).Respond(ctx, domain.SetOperatingModeResponse{
			Mode: mode,
		})
	case domain.SetSocProtectionRequest:
		state.store.SetSocProtection(cmd.Enable)
		state.logger.Info("control: soc protection changed", zap.Bool("enable", cmd.Enable))
		state.eventStream.Publish(events.SocProtectionSwitchUpdateEvent(cmd.Enable))
		ForRequest(msg).Respond(ctx, domain.SetSocProtectionResponse{
			Enable: cmd.Enable,
		})
	}
}

func (state *ControlActor) handleVehicleStatus(msg domain.GetVehicleStatusResponse) {
	if msg.HasResponseError() || msg.Status == nil {
		state.logger.Warn("control: vehicle status poll failed", zap.Error(msg.GetResponseError()))
		state.store.MarkVehicleStatusAttempt(time.Now())
		return
	}
	state.logger.Debug("control: vehicle status", zap.Any("status", msg.Status))
	state.store.ApplyVehicleStatus(msg.Status)
	snapshot := state.store.Snapshot()
	state.publishEvents(events.VehicleStatusToUpdateEvents(&snapshot))
}

func (state *ControlActor) publishEvents(events []any) {
	for _, ev := range events {
		state.eventStream.Publish(ev)
	}
}
