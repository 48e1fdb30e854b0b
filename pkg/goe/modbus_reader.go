package goe

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

const (
	// Charging power in W/100 over two input registers, high word first.
	powerTotalRegister = 120
	// Car state code, one input register.
	carStateRegister = 100

	// Readings above the rated power of the box are sensor noise.
	maxPlausiblePowerKW = 11.0
)

// ChargerModbusReader reads live telemetry from a go-e charger over modbus TCP.
type ChargerModbusReader interface {
	Open() error
	Close() error
	ReadPowerKW() (float64, error)
	ReadCarStateCode() (int, error)
}

type Instrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

type GoeModbusReader struct {
	client     *modbus.ModbusClient
	instrument []Instrument
}

func CreateGoeModbusReader(host string, port uint, unitId uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *Instrument) (ChargerModbusReader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}
	err = client.SetUnitId(unitId)
	if err != nil {
		return nil, err
	}

	// instrumentation
	var inst []Instrument
	logInst := traceLoggerInstrumentation(logger.With(zap.String("target", "wallbox")).With(zap.Uint8("unit", unitId)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	return &GoeModbusReader{
		client:     client,
		instrument: inst,
	}, nil
}

func (reader *GoeModbusReader) Open() error {
	return reader.client.Open()
}

func (reader *GoeModbusReader) Close() error {
	return reader.client.Close()
}

// ReadPowerKW returns the current charging power in kW. Implausible
// readings are clamped to 0.
func (reader *GoeModbusReader) ReadPowerKW() (float64, error) {
	defer recordTimer("ReadUint32", reader.instrument)()
	raw, err := reader.client.ReadUint32(powerTotalRegister, modbus.INPUT_REGISTER)
	if err != nil {
		return 0, fmt.Errorf("goe charging power read: %w", err)
	}
	powerKW := float64(raw) / 100000
	if powerKW > maxPlausiblePowerKW {
		return 0, nil
	}
	return powerKW, nil
}

// ReadCarStateCode returns the raw car state code of the charger.
func (reader *GoeModbusReader) ReadCarStateCode() (int, error) {
	defer recordTimer("ReadRegister", reader.instrument)()
	raw, err := reader.client.ReadRegister(carStateRegister, modbus.INPUT_REGISTER)
	if err != nil {
		return 0, fmt.Errorf("goe car state read: %w", err)
	}
	return int(raw), nil
}

func traceLoggerInstrumentation(logger *zap.Logger) *Instrument {
	return &Instrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug(fmt.Sprintf("modbus [%s]: %d millis", fnName, readTime.Milliseconds()))
		},
	}
}

func recordTimer(name string, instrument []Instrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}
