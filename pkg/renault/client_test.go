package renault

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCloudServer(t *testing.T, accounts string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/accounts.login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lorem@example.com", r.FormValue("loginID"))
		fmt.Fprint(w, `{"errorCode":0,"sessionInfo":{"cookieValue":"login-token-1"}}`)
	})
	mux.HandleFunc("/accounts.getAccountInfo", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "login-token-1", r.FormValue("login_token"))
		fmt.Fprint(w, `{"errorCode":0,"data":{"personId":"person-1"}}`)
	})
	mux.HandleFunc("/accounts.getJWT", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errorCode":0,"id_token":"jwt-1"}`)
	})
	mux.HandleFunc("/persons/person-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DE", r.URL.Query().Get("country"))
		assert.Equal(t, "jwt-1", r.Header.Get("x-gigya-id_token"))
		fmt.Fprint(w, accounts)
	})
	mux.HandleFunc("/accounts/account-1/vehicles", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"vehicleLinks":[{"vin":"VF1AG000000000000"}]}`)
	})
	mux.HandleFunc("/accounts/account-1/kamereon/kca/car-adapter/v2/cars/VF1AG000000000000/battery-status",
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":{"attributes":{"batteryLevel":84,"batteryAutonomy":215,"plugStatus":1,"chargingStatus":1.0}}}`)
		})
	return httptest.NewServer(mux)
}

func testConfig(serverURL string) Config {
	return Config{
		Email:           "lorem@example.com",
		Password:        "ipsum",
		Locale:          "de_DE",
		Timeout:         5 * time.Second,
		GigyaRootURL:    serverURL,
		GigyaAPIKey:     "gigya-key",
		KamereonRootURL: serverURL,
		KamereonAPIKey:  "kamereon-key",
	}
}

func TestReadStatus(t *testing.T) {
	assert := assert.New(t)

	server := testCloudServer(t, `{"accounts":[{"accountId":"other-1","accountType":"SFDC"},{"accountId":"account-1","accountType":"MYRENAULT"}]}`)
	defer server.Close()

	client, err := CreateCloudStatusClient(testConfig(server.URL), zap.Must(zap.NewDevelopment()))
	require.NoError(t, err)

	status, err := client.ReadStatus(context.Background())
	require.NoError(t, err)

	assert.NotNil(status.SocPercent)
	assert.InDelta(84, *status.SocPercent, 0.001)
	assert.NotNil(status.AutonomyKm)
	assert.InDelta(215, *status.AutonomyKm, 0.001)
	assert.NotNil(status.PlugStatus)
	assert.Equal(1, *status.PlugStatus)
	assert.NotNil(status.ChargingStatus)
	assert.WithinDuration(time.Now(), status.Timestamp, 5*time.Second)
}

func TestReadStatusNoMyRenaultAccount(t *testing.T) {
	assert := assert.New(t)

	server := testCloudServer(t, `{"accounts":[{"accountId":"other-1","accountType":"SFDC"}]}`)
	defer server.Close()

	client, err := CreateCloudStatusClient(testConfig(server.URL), zap.Must(zap.NewDevelopment()))
	require.NoError(t, err)

	_, err = client.ReadStatus(context.Background())
	assert.Error(err)
	assert.Contains(err.Error(), "MYRENAULT")
}

func TestReadStatusLoginFailure(t *testing.T) {
	assert := assert.New(t)

	mux := http.NewServeMux()
	mux.HandleFunc("/accounts.login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errorCode":403042,"errorDetails":"invalid loginID or password"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := CreateCloudStatusClient(testConfig(server.URL), zap.Must(zap.NewDevelopment()))
	require.NoError(t, err)

	_, err = client.ReadStatus(context.Background())
	assert.Error(err)
	assert.Contains(err.Error(), "403042")
}

func TestCreateClientRequiresCredentials(t *testing.T) {
	assert := assert.New(t)

	_, err := CreateCloudStatusClient(Config{Email: "lorem@example.com"}, zap.Must(zap.NewDevelopment()))
	assert.Error(err)

	_, err = CreateCloudStatusClient(Config{Password: "ipsum"}, zap.Must(zap.NewDevelopment()))
	assert.Error(err)
}
