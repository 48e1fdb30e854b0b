package kostal

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// Total AC power register of the Kostal process data map: float32 over two
// holding registers, big endian bytes with the low word first.
const totalACPowerRegister = 172

// InverterReader reads live production values from a Kostal inverter.
type InverterReader interface {
	Open() error
	Close() error
	ReadTotalPowerKW() (float64, error)
}

type Instrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

type KostalModbusReader struct {
	client     *modbus.ModbusClient
	instrument []Instrument
}

func CreateKostalModbusReader(host string, port uint, unitId uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *Instrument) (InverterReader, error) {
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
	err = client.SetEncoding(modbus.BIG_ENDIAN, modbus.LOW_WORD_FIRST)
	if err != nil {
		return nil, err
	}

	// instrumentation
	var inst []Instrument
	logInst := traceLoggerInstrumentation(logger.With(zap.String("target", "inverter")).With(zap.Uint8("unit", unitId)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	return &KostalModbusReader{
		client:     client,
		instrument: inst,
	}, nil
}

func (reader *KostalModbusReader) Open() error {
	return reader.client.Open()
}

func (reader *KostalModbusReader) Close() error {
	return reader.client.Close()
}

// ReadTotalPowerKW returns the current total AC production of the inverter in kW.
func (reader *KostalModbusReader) ReadTotalPowerKW() (float64, error) {
	defer recordTimer("ReadFloat32", reader.instrument)()
	powerWatt, err := reader.client.ReadFloat32(totalACPowerRegister, modbus.HOLDING_REGISTER)
	if err != nil {
		return 0, fmt.Errorf("kostal total power read: %w", err)
	}
	return float64(powerWatt) / 1000, nil
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
