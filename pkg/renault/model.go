package renault

import (
	"context"
	"time"
)

// BatteryStatus is the vehicle battery state as reported by the MyRenault
// cloud. Fields are nil when the service did not report them.
type BatteryStatus struct {
	SocPercent     *float64
	AutonomyKm     *float64
	PlugStatus     *int
	ChargingStatus *float64
	Timestamp      time.Time
}

// StatusClient fetches the vehicle battery status from the MyRenault cloud.
// A read may take several seconds and the remote service is not always
// reliable, so it is meant to be polled infrequently.
type StatusClient interface {
	ReadStatus(ctx context.Context) (*BatteryStatus, error)
}
