package goe

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ChargerClient controls a go-e charger through the local HTTP API v2.
//
//   - GET http://<host>/api/status?filter=car,psm,amp,wh
//   - GET http://<host>/api/set?psm=1|2
//   - GET http://<host>/api/set?amp=<A>
//   - GET http://<host>/api/set?frc=0|1|2
type ChargerClient interface {
	GetStatus() (*ChargerStatus, error)
	SetPhaseMode(phases int) error
	SetAmpere(ampere int) error
	SetChargingEnabled(enabled bool) error
}

type HTTPChargerClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func CreateHTTPChargerClient(host string, timeout time.Duration, logger *zap.Logger) ChargerClient {
	return &HTTPChargerClient{
		baseURL:    fmt.Sprintf("http://%s", host),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(zap.String("target", "charger")),
	}
}

// GetStatus returns a normalized view on the charger status.
//
// Mapping of the API v2 fields:
//
//	car: 1 Idle, 2 Charging, 3 Waiting, 4 Finished
//	psm: 1 single phase, 2 three phases
//	amp: allowed charging current in A
//	wh:  energy in Wh since the current vehicle connected
func (client *HTTPChargerClient) GetStatus() (*ChargerStatus, error) {
	body, err := client.getJSON("/api/status?filter=car,psm,amp,wh")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Car *int     `json:"car"`
		Psm *int     `json:"psm"`
		Amp *int     `json:"amp"`
		Wh  *float64 `json:"wh"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("goe status response: %w", err)
	}

	status := ChargerStatus{
		CarState: CarStateUnknown,
	}
	if payload.Car != nil {
		status.CarState = CarStateFromCode(*payload.Car)
	}
	if payload.Psm != nil {
		switch *payload.Psm {
		case 1:
			status.PhaseMode = OptionalInt(1)
		case 2:
			status.PhaseMode = OptionalInt(3)
		}
	}
	status.AmpereAllowed = payload.Amp
	if payload.Wh != nil {
		if *payload.Wh < 0 {
			client.logger.Warn("negative energy counter from wallbox", zap.Float64("wh", *payload.Wh))
		}
		status.EnergySinceConnectedWh = payload.Wh
	}
	return &status, nil
}

// SetPhaseMode sets the number of charging phases (1 or 3).
// Internally the charger uses psm=1 for single phase and psm=2 for three phases.
func (client *HTTPChargerClient) SetPhaseMode(phases int) error {
	var psm int
	switch phases {
	case 1:
		psm = 1
	case 3:
		psm = 2
	default:
		return fmt.Errorf("phase mode must be 1 or 3, got %d", phases)
	}
	return client.set(url.Values{"psm": []string{strconv.Itoa(psm)}})
}

// SetAmpere sets the maximum charging current in A.
func (client *HTTPChargerClient) SetAmpere(ampere int) error {
	if ampere < 0 {
		return fmt.Errorf("ampere must be non-negative, got %d", ampere)
	}
	return client.set(url.Values{"amp": []string{strconv.Itoa(ampere)}})
}

// SetChargingEnabled forces charging on (frc=2) or off (frc=1).
func (client *HTTPChargerClient) SetChargingEnabled(enabled bool) error {
	frc := "1"
	if enabled {
		frc = "2"
	}
	return client.set(url.Values{"frc": []string{frc}})
}

func (client *HTTPChargerClient) getJSON(path string) ([]byte, error) {
	reqURL := client.baseURL + path
	resp, err := client.httpClient.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("goe request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("goe request %s: unexpected status %d", path, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("goe request %s: %w", path, err)
	}
	return body, nil
}

func (client *HTTPChargerClient) set(params url.Values) error {
	reqURL := fmt.Sprintf("%s/api/set?%s", client.baseURL, params.Encode())
	client.logger.Debug("charger command", zap.String("params", params.Encode()))
	resp, err := client.httpClient.Get(reqURL)
	if err != nil {
		return fmt.Errorf("goe set %s: %w", params.Encode(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("goe set %s: unexpected status %d", params.Encode(), resp.StatusCode)
	}
	return nil
}
