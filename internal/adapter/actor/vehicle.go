package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/surplus2goe/internal/core/domain"
	"github.com/berfenger/surplus2goe/internal/util/actorutil"
	"github.com/berfenger/surplus2goe/pkg/renault"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// VehicleActor serializes access to the vehicle cloud API. Cloud reads are
// slow, so the actor stashes everything while a poll is in flight.
type VehicleActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	client   renault.StatusClient
	logger   *zap.Logger
}

func NewVehicleActor(client renault.StatusClient, logger *zap.Logger) *VehicleActor {
	act := &VehicleActor{
		client:   client,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_VEHICLE, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *VehicleActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *VehicleActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("vehicle@starting started")
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("vehicle@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *VehicleActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("vehicle@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_VEHICLE,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetVehicleStatusRequest:
		state.logger.Debug("vehicle@default: GetVehicleStatusRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getVehicleStatus),
			mapTaskResult[domain.GetVehicleStatusResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetVehicleStatusResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(20 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingVehicle)
	default:
		state.logger.Debug("vehicle@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *VehicleActor) WaitingVehicle(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("vehicle@WaitingVehicle backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("vehicle@WaitingVehicle stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *VehicleActor) getVehicleStatus() (*domain.GetVehicleStatusResponse, error) {
	if a.client == nil {
		return nil, domain.NewVehicleError(errors.New("no vehicle account configured"))
	}
	status, err := a.client.ReadStatus(context.Background())
	if err != nil {
		logger.Error(err)
		return nil, domain.NewVehicleError(err)
	}
	return &domain.GetVehicleStatusResponse{
		Status: status,
	}, nil
}
