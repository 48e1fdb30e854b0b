package domain

import "fmt"

// ControlRequest

type ControlRequest interface {
	ActorRequest
	ControlCommand() string
}

type ControlRequestMixIn struct {
	ActorRequestMixIn
}

func (r ControlRequestMixIn) ControlCommand() string {
	return fmt.Sprintf("%T", r)
}

// ControlResponse

type ControlResponse interface {
	ActorResponse
	ControlResponse() string
}

type ControlResponseMixIn struct {
	ActorResponseMixIn
}

func (r ControlResponseMixIn) ControlResponse() string {
	return fmt.Sprintf("%T", r)
}

// Control commands

type SetOperatingModeRequest struct {
	ControlRequestMixIn
	Mode string
}

type SetOperatingModeResponse struct {
	ControlResponseMixIn
	Mode OperatingMode
}

type SetSocProtectionRequest struct {
	ControlRequestMixIn
	Enable bool
}

type SetSocProtectionResponse struct {
	ControlResponseMixIn
	Enable bool
}

// ensure interface compliance
var _ ControlRequest = (*SetOperatingModeRequest)(nil)
var _ ControlResponse = (*SetOperatingModeResponse)(nil)
