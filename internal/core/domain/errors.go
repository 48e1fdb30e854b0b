package domain

import (
	"errors"
	"fmt"
)

// Failure kinds crossing component boundaries. Read, command and vehicle
// errors are caught at the tick boundary and degrade the affected status
// fields; validation errors are returned to the external caller.

type ReadError struct {
	Device string
	Err    error
}

func NewReadError(device string, err error) *ReadError {
	return &ReadError{Device: device, Err: err}
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s read failed: %s", e.Device, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

type CommandError struct {
	Device string
	Err    error
}

func NewCommandError(device string, err error) *CommandError {
	return &CommandError{Device: device, Err: err}
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s command failed: %s", e.Device, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

type VehicleError struct {
	Err error
}

func NewVehicleError(err error) *VehicleError {
	return &VehicleError{Err: err}
}

func (e *VehicleError) Error() string {
	return fmt.Sprintf("vehicle status failed: %s", e.Err)
}

func (e *VehicleError) Unwrap() error {
	return e.Err
}

type ValidationError struct {
	Param   string
	Message string
}

func NewValidationError(param string, message string) *ValidationError {
	return &ValidationError{Param: param, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
}

func IsReadError(err error) bool {
	var re *ReadError
	return errors.As(err, &re)
}

func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

func IsVehicleError(err error) bool {
	var ve *VehicleError
	return errors.As(err, &ve)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
