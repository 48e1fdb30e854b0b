package goe

import "fmt"

func CreateTestModbusReader(powerKW float64, carStateCode int) (ChargerModbusReader, error) {
	return TestModbusReader{PowerKW: powerKW, CarStateCode: carStateCode}, nil
}

type TestModbusReader struct {
	PowerKW      float64
	CarStateCode int
	Err          error
}

func (reader TestModbusReader) Open() error {
	return nil
}

func (reader TestModbusReader) Close() error {
	return nil
}

func (reader TestModbusReader) ReadPowerKW() (float64, error) {
	if reader.Err != nil {
		return 0, reader.Err
	}
	return reader.PowerKW, nil
}

func (reader TestModbusReader) ReadCarStateCode() (int, error) {
	if reader.Err != nil {
		return 0, reader.Err
	}
	return reader.CarStateCode, nil
}

// TestChargerClient records every command for later inspection.
type TestChargerClient struct {
	Status     ChargerStatus
	StatusErr  error
	CommandErr error
	Calls      []string
}

func CreateTestChargerClient(status ChargerStatus) *TestChargerClient {
	return &TestChargerClient{Status: status}
}

func (client *TestChargerClient) GetStatus() (*ChargerStatus, error) {
	if client.StatusErr != nil {
		return nil, client.StatusErr
	}
	status := client.Status
	return &status, nil
}

func (client *TestChargerClient) SetPhaseMode(phases int) error {
	client.Calls = append(client.Calls, fmt.Sprintf("phase=%d", phases))
	return client.CommandErr
}

func (client *TestChargerClient) SetAmpere(ampere int) error {
	client.Calls = append(client.Calls, fmt.Sprintf("ampere=%d", ampere))
	return client.CommandErr
}

func (client *TestChargerClient) SetChargingEnabled(enabled bool) error {
	client.Calls = append(client.Calls, fmt.Sprintf("charging=%t", enabled))
	return client.CommandErr
}
