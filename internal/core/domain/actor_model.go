package domain

import (
	"github.com/asynkron/protoactor-go/actor"

	"github.com/berfenger/surplus2goe/pkg/goe"
	"github.com/berfenger/surplus2goe/pkg/renault"
)

type ActorRef actor.PID

type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_DEVICES      = "devices"
	ACTOR_ID_VEHICLE      = "vehicle"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_CONTROL      = "control"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// devices actor

type GetLiveTelemetryRequest struct {
	ActorRequestMixIn
}

// GetLiveTelemetryResponse carries one reading per device. A nil field means
// that device read failed; the response error is only set when the request
// itself could not be served.
type GetLiveTelemetryResponse struct {
	ActorResponseMixIn
	PVPowerKW              *float64
	GridPowerKW            *float64
	WallboxPowerKW         *float64
	CarState               *goe.CarState
	ChargePhase            *int
	ChargeCurrentA         *int
	EnergySinceConnectedWh *float64
}

type GetWallboxPowerRequest struct {
	ActorRequestMixIn
}

type GetWallboxPowerResponse struct {
	ActorResponseMixIn
	PowerKW float64
}

type ApplyChargerCommandRequest struct {
	ActorRequestMixIn
	Phase    int
	CurrentA int
}

type ApplyChargerCommandResponse struct {
	ActorResponseMixIn
	Applied bool
}

// vehicle actor

type GetVehicleStatusRequest struct {
	ActorRequestMixIn
}

type GetVehicleStatusResponse struct {
	ActorResponseMixIn
	Status *renault.BatteryStatus
}

// mqtt actor

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors  []GenericSensor
	Switches []GenericSwitch
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

// health check

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
