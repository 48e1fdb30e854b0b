package kostal

func CreateTestInverterReader(powerKW float64) (InverterReader, error) {
	return TestInverterReader{PowerKW: powerKW}, nil
}

type TestInverterReader struct {
	PowerKW float64
	Err     error
}

func (reader TestInverterReader) Open() error {
	return nil
}

func (reader TestInverterReader) Close() error {
	return nil
}

func (reader TestInverterReader) ReadTotalPowerKW() (float64, error) {
	if reader.Err != nil {
		return 0, reader.Err
	}
	return reader.PowerKW, nil
}
