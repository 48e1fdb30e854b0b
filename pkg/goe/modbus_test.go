package goe

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
)

const (
	USE_MOCKED_READER = true
)

func TestReadPower(t *testing.T) {

	reader := ModbusReader()

	err := reader.Open()
	if err != nil {
		t.Error(err)
		return
	}
	defer reader.Close()

	power, err := reader.ReadPowerKW()
	if err != nil {
		t.Error(err)
		return
	}
	fmt.Printf("Wallbox charging power: %.3f kW\n", power)

	if power < 0 || power > maxPlausiblePowerKW {
		t.Errorf("charging power out of plausible range: %f", power)
	}
}

func TestReadCarState(t *testing.T) {

	reader := ModbusReader()

	err := reader.Open()
	if err != nil {
		t.Error(err)
		return
	}
	defer reader.Close()

	code, err := reader.ReadCarStateCode()
	if err != nil {
		t.Error(err)
		return
	}
	fmt.Printf("Wallbox car state: %d (%s), connected=%v\n", code, CarStateFromCode(code), IsCarConnected(code))
}

func RealModbusReader() ChargerModbusReader {
	logger := zap.Must(zap.NewDevelopment())
	reader, err := CreateGoeModbusReader("-.-.-.-", 502, 1, 3*time.Second, logger, nil)
	if err != nil {
		panic(err)
	}
	return reader
}

func MockedModbusReader() ChargerModbusReader {
	reader, err := CreateTestModbusReader(7.36, 2)
	if err != nil {
		panic(err)
	}
	return reader
}

func ModbusReader() ChargerModbusReader {
	if USE_MOCKED_READER {
		return MockedModbusReader()
	} else {
		return RealModbusReader()
	}
}
