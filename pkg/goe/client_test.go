package goe

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func testClientFor(t *testing.T, handler http.HandlerFunc) (ChargerClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	host := strings.TrimPrefix(server.URL, "http://")
	client := CreateHTTPChargerClient(host, 2*time.Second, zap.Must(zap.NewDevelopment()))
	return client, server
}

func TestGetStatusChargingThreePhases(t *testing.T) {
	assert := assert.New(t)

	client, server := testClientFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/api/status", r.URL.Path)
		assert.Equal("car,psm,amp,wh", r.URL.Query().Get("filter"))
		fmt.Fprint(w, `{"car":2,"psm":2,"amp":16,"wh":2450.5}`)
	})
	defer server.Close()

	status, err := client.GetStatus()
	assert.NoError(err)
	assert.Equal(CarStateCharging, status.CarState)
	assert.NotNil(status.PhaseMode)
	assert.Equal(3, *status.PhaseMode, "psm=2 should map to 3 phases")
	assert.NotNil(status.AmpereAllowed)
	assert.Equal(16, *status.AmpereAllowed)
	assert.NotNil(status.EnergySinceConnectedWh)
	assert.InDelta(2450.5, *status.EnergySinceConnectedWh, 0.001)
}

func TestGetStatusSinglePhaseIdle(t *testing.T) {
	assert := assert.New(t)

	client, server := testClientFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"car":1,"psm":1,"amp":6}`)
	})
	defer server.Close()

	status, err := client.GetStatus()
	assert.NoError(err)
	assert.Equal(CarStateIdle, status.CarState)
	assert.Equal(1, *status.PhaseMode, "psm=1 should map to 1 phase")
	assert.Nil(status.EnergySinceConnectedWh)
}

func TestGetStatusMissingFields(t *testing.T) {
	assert := assert.New(t)

	client, server := testClientFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	defer server.Close()

	status, err := client.GetStatus()
	assert.NoError(err)
	assert.Equal(CarStateUnknown, status.CarState)
	assert.Nil(status.PhaseMode)
	assert.Nil(status.AmpereAllowed)
}

func TestGetStatusUnknownPhaseModeValue(t *testing.T) {
	assert := assert.New(t)

	client, server := testClientFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"car":3,"psm":0,"amp":10}`)
	})
	defer server.Close()

	status, err := client.GetStatus()
	assert.NoError(err)
	assert.Equal(CarStateWaiting, status.CarState)
	assert.Nil(status.PhaseMode, "psm=0 is indeterminate")
}

func TestSetCommands(t *testing.T) {
	assert := assert.New(t)

	var requests []string
	client, server := testClientFor(t, func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.RequestURI())
		fmt.Fprint(w, `{}`)
	})
	defer server.Close()

	assert.NoError(client.SetPhaseMode(1))
	assert.NoError(client.SetPhaseMode(3))
	assert.NoError(client.SetAmpere(14))
	assert.NoError(client.SetChargingEnabled(true))
	assert.NoError(client.SetChargingEnabled(false))

	assert.Equal([]string{
		"/api/set?psm=1",
		"/api/set?psm=2",
		"/api/set?amp=14",
		"/api/set?frc=2",
		"/api/set?frc=1",
	}, requests)
}

func TestSetCommandValidation(t *testing.T) {
	assert := assert.New(t)

	client, server := testClientFor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for invalid input")
	})
	defer server.Close()

	assert.Error(client.SetPhaseMode(2))
	assert.Error(client.SetAmpere(-1))
}

func TestCarStateFromCode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(CarStateUnknown, CarStateFromCode(0))
	assert.Equal(CarStateIdle, CarStateFromCode(1))
	assert.Equal(CarStateCharging, CarStateFromCode(2))
	assert.Equal(CarStateWaiting, CarStateFromCode(3))
	assert.Equal(CarStateFinished, CarStateFromCode(4))
	assert.Equal(CarState("7"), CarStateFromCode(7))

	assert.False(IsCarConnected(1))
	assert.True(IsCarConnected(2))
	assert.True(IsCarConnected(3))
	assert.True(IsCarConnected(4))
}
