package tasmota

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

func testReaderFor(t *testing.T, handler http.HandlerFunc) (PowerReader, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	host := strings.TrimPrefix(server.URL, "http://")
	reader := CreateTasmotaPowerReader(host, "MT631", 2*time.Second, zap.Must(zap.NewDevelopment()))
	return reader, server
}

func TestReadPowerKWImport(t *testing.T) {
	assert := assert.New(t)

	reader, server := testReaderFor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/cm", r.URL.Path)
		assert.Equal("status 10", r.URL.Query().Get("cmnd"))
		fmt.Fprint(w, `{"StatusSNS":{"Time":"2024-05-11T10:00:00","MT631":{"Power_cur":1250}}}`)
	})
	defer server.Close()

	power, err := reader.ReadPowerKW()
	assert.NoError(err)
	assert.InDelta(1.25, power, 0.0001, "positive reading should mean grid import")
}

func TestReadPowerKWExport(t *testing.T) {
	assert := assert.New(t)

	reader, server := testReaderFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"StatusSNS":{"MT631":{"Power_cur":-3400}}}`)
	})
	defer server.Close()

	power, err := reader.ReadPowerKW()
	assert.NoError(err)
	assert.InDelta(-3.4, power, 0.0001, "negative reading should mean grid export")
}

func TestReadPowerKWNonNumericField(t *testing.T) {
	assert := assert.New(t)

	reader, server := testReaderFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"StatusSNS":{"MT631":{"Power_cur":"n/a"}}}`)
	})
	defer server.Close()

	_, err := reader.ReadPowerKW()
	assert.Error(err, "non numeric Power_cur should not parse")
}

func TestReadPowerKWMissingSensor(t *testing.T) {
	assert := assert.New(t)

	reader, server := testReaderFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"StatusSNS":{"Time":"2024-05-11T10:00:00"}}`)
	})
	defer server.Close()

	_, err := reader.ReadPowerKW()
	assert.Error(err)
	assert.Contains(err.Error(), "MT631")
}

func TestReadPowerKWHTTPError(t *testing.T) {
	assert := assert.New(t)

	reader, server := testReaderFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	_, err := reader.ReadPowerKW()
	assert.Error(err)
}
