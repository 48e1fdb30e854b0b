package tasmota

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const statusCommand = "status 10"

// PowerReader reads live grid power from a Tasmota based meter.
type PowerReader interface {
	ReadPowerKW() (float64, error)
}

type TasmotaPowerReader struct {
	baseURL    string
	sensorName string
	httpClient *http.Client
	logger     *zap.Logger
}

func CreateTasmotaPowerReader(host string, sensorName string, timeout time.Duration, logger *zap.Logger) PowerReader {
	return &TasmotaPowerReader{
		baseURL:    fmt.Sprintf("http://%s", host),
		sensorName: sensorName,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(zap.String("target", "gridMeter")),
	}
}

// ReadPowerKW returns the current grid power in kW.
// Positive values are import from the grid, negative values export.
func (reader *TasmotaPowerReader) ReadPowerKW() (float64, error) {
	reqURL := fmt.Sprintf("%s/cm?cmnd=%s", reader.baseURL, url.QueryEscape(statusCommand))
	resp, err := reader.httpClient.Get(reqURL)
	if err != nil {
		return 0, fmt.Errorf("tasmota status request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("tasmota status request: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("tasmota status response: %w", err)
	}

	var status struct {
		StatusSNS map[string]json.RawMessage `json:"StatusSNS"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return 0, fmt.Errorf("tasmota status response: %w", err)
	}
	raw, ok := status.StatusSNS[reader.sensorName]
	if !ok {
		return 0, fmt.Errorf("tasmota status response: sensor %s not found", reader.sensorName)
	}
	var sensor struct {
		PowerCur *float64 `json:"Power_cur"`
	}
	if err := json.Unmarshal(raw, &sensor); err != nil {
		return 0, fmt.Errorf("tasmota sensor %s: %w", reader.sensorName, err)
	}
	if sensor.PowerCur == nil {
		return 0, fmt.Errorf("tasmota sensor %s: field Power_cur missing or not numeric", reader.sensorName)
	}
	powerKW := *sensor.PowerCur / 1000
	reader.logger.Debug("grid power read", zap.Float64("power_kw", powerKW))
	return powerKW, nil
}
