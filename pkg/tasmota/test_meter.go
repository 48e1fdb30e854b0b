package tasmota

func CreateTestPowerReader(powerKW float64) PowerReader {
	return TestPowerReader{PowerKW: powerKW}
}

type TestPowerReader struct {
	PowerKW float64
	Err     error
}

func (reader TestPowerReader) ReadPowerKW() (float64, error) {
	if reader.Err != nil {
		return 0, reader.Err
	}
	return reader.PowerKW, nil
}
