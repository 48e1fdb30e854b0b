package renault

import (
	"context"
	"time"
)

func CreateTestStatusClient(socPercent float64) StatusClient {
	autonomy := 145.0
	plug := 1
	charging := 1.0
	return TestStatusClient{
		Status: BatteryStatus{
			SocPercent:     &socPercent,
			AutonomyKm:     &autonomy,
			PlugStatus:     &plug,
			ChargingStatus: &charging,
			Timestamp:      time.Now(),
		},
	}
}

type TestStatusClient struct {
	Status BatteryStatus
	Err    error
}

func (client TestStatusClient) ReadStatus(ctx context.Context) (*BatteryStatus, error) {
	if client.Err != nil {
		return nil, client.Err
	}
	status := client.Status
	status.Timestamp = time.Now()
	return &status, nil
}
