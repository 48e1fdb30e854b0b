package renault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Well known MyRenault endpoints for the de_DE locale. The API keys are
// published by the vendor app and rotate occasionally, so they can be
// overridden through Config.
const (
	DefaultGigyaRootURL    = "https://accounts.eu1.gigya.com"
	DefaultGigyaAPIKey     = "3_7PLksOyBRkHv126x5WhHb-5pqC1qFR8pQjxSeLB6nhAnPERTUlwnYoznHSxwX668"
	DefaultKamereonRootURL = "https://api-wired-prod-1-euw1.wrd-aws.com/commerce/v1"
	DefaultKamereonAPIKey  = "YAe2dwAjZbrGjjzZGUlZOkf5F48okUoo"

	accountTypeMyRenault = "MYRENAULT"
)

type Config struct {
	Email           string
	Password        string
	Locale          string
	Timeout         time.Duration
	GigyaRootURL    string
	GigyaAPIKey     string
	KamereonRootURL string
	KamereonAPIKey  string
}

type CloudStatusClient struct {
	config     Config
	country    string
	httpClient *http.Client
	logger     *zap.Logger
}

func CreateCloudStatusClient(config Config, logger *zap.Logger) (StatusClient, error) {
	if config.Email == "" || config.Password == "" {
		return nil, errors.New("missing MyRenault credentials: email and password are required")
	}
	if config.Locale == "" {
		config.Locale = "de_DE"
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.GigyaRootURL == "" {
		config.GigyaRootURL = DefaultGigyaRootURL
	}
	if config.GigyaAPIKey == "" {
		config.GigyaAPIKey = DefaultGigyaAPIKey
	}
	if config.KamereonRootURL == "" {
		config.KamereonRootURL = DefaultKamereonRootURL
	}
	if config.KamereonAPIKey == "" {
		config.KamereonAPIKey = DefaultKamereonAPIKey
	}

	country := config.Locale
	if parts := strings.Split(config.Locale, "_"); len(parts) == 2 {
		country = parts[1]
	}

	return &CloudStatusClient{
		config:     config,
		country:    country,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With(zap.String("target", "vehicle")),
	}, nil
}

// ReadStatus walks the full MyRenault flow: gigya login, person lookup,
// MYRENAULT account, first vehicle, battery status.
func (client *CloudStatusClient) ReadStatus(ctx context.Context) (*BatteryStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, client.config.Timeout)
	defer cancel()

	loginToken, err := client.login(ctx)
	if err != nil {
		return nil, fmt.Errorf("gigya login: %w", err)
	}
	personId, err := client.personId(ctx, loginToken)
	if err != nil {
		return nil, fmt.Errorf("gigya account info: %w", err)
	}
	jwt, err := client.jwt(ctx, loginToken)
	if err != nil {
		return nil, fmt.Errorf("gigya jwt: %w", err)
	}
	accountId, err := client.myRenaultAccountId(ctx, jwt, personId)
	if err != nil {
		return nil, fmt.Errorf("kamereon person: %w", err)
	}
	vin, err := client.firstVehicleVIN(ctx, jwt, accountId)
	if err != nil {
		return nil, fmt.Errorf("kamereon vehicles: %w", err)
	}
	status, err := client.batteryStatus(ctx, jwt, accountId, vin)
	if err != nil {
		return nil, fmt.Errorf("kamereon battery status: %w", err)
	}
	client.logger.Debug("vehicle status read", zap.String("vin", vin))
	return status, nil
}

type gigyaResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorDetails string `json:"errorDetails"`
	SessionInfo  *struct {
		CookieValue string `json:"cookieValue"`
	} `json:"sessionInfo"`
	Data *struct {
		PersonId string `json:"personId"`
	} `json:"data"`
	IdToken string `json:"id_token"`
}

func (client *CloudStatusClient) gigyaPost(ctx context.Context, path string, form url.Values) (*gigyaResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		client.config.GigyaRootURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed gigyaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unexpected response: %w", err)
	}
	if parsed.ErrorCode != 0 {
		return nil, fmt.Errorf("gigya error %d: %s", parsed.ErrorCode, parsed.ErrorDetails)
	}
	return &parsed, nil
}

func (client *CloudStatusClient) login(ctx context.Context) (string, error) {
	resp, err := client.gigyaPost(ctx, "/accounts.login", url.Values{
		"ApiKey":   []string{client.config.GigyaAPIKey},
		"loginID":  []string{client.config.Email},
		"password": []string{client.config.Password},
	})
	if err != nil {
		return "", err
	}
	if resp.SessionInfo == nil || resp.SessionInfo.CookieValue == "" {
		return "", errors.New("no session cookie in login response")
	}
	return resp.SessionInfo.CookieValue, nil
}

func (client *CloudStatusClient) personId(ctx context.Context, loginToken string) (string, error) {
	resp, err := client.gigyaPost(ctx, "/accounts.getAccountInfo", url.Values{
		"ApiKey":      []string{client.config.GigyaAPIKey},
		"login_token": []string{loginToken},
	})
	if err != nil {
		return "", err
	}
	if resp.Data == nil || resp.Data.PersonId == "" {
		return "", errors.New("no person id in account info response")
	}
	return resp.Data.PersonId, nil
}

func (client *CloudStatusClient) jwt(ctx context.Context, loginToken string) (string, error) {
	resp, err := client.gigyaPost(ctx, "/accounts.getJWT", url.Values{
		"ApiKey":      []string{client.config.GigyaAPIKey},
		"login_token": []string{loginToken},
		"fields":      []string{"data.personId,data.gigyaDataCenter"},
		"expiration":  []string{"900"},
	})
	if err != nil {
		return "", err
	}
	if resp.IdToken == "" {
		return "", errors.New("no id token in jwt response")
	}
	return resp.IdToken, nil
}

func (client *CloudStatusClient) kamereonGet(ctx context.Context, jwt string, path string, result any) error {
	reqURL := fmt.Sprintf("%s%s?country=%s", client.config.KamereonRootURL, path, client.country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", client.config.KamereonAPIKey)
	req.Header.Set("x-gigya-id_token", jwt)
	req.Header.Set("Accept", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, result)
}

func (client *CloudStatusClient) myRenaultAccountId(ctx context.Context, jwt string, personId string) (string, error) {
	var person struct {
		Accounts []struct {
			AccountId   string `json:"accountId"`
			AccountType string `json:"accountType"`
		} `json:"accounts"`
	}
	err := client.kamereonGet(ctx, jwt, fmt.Sprintf("/persons/%s", personId), &person)
	if err != nil {
		return "", err
	}
	for _, account := range person.Accounts {
		if account.AccountType == accountTypeMyRenault {
			return account.AccountId, nil
		}
	}
	return "", fmt.Errorf("no %s account found", accountTypeMyRenault)
}

func (client *CloudStatusClient) firstVehicleVIN(ctx context.Context, jwt string, accountId string) (string, error) {
	var vehicles struct {
		VehicleLinks []struct {
			VIN string `json:"vin"`
		} `json:"vehicleLinks"`
	}
	err := client.kamereonGet(ctx, jwt, fmt.Sprintf("/accounts/%s/vehicles", accountId), &vehicles)
	if err != nil {
		return "", err
	}
	if len(vehicles.VehicleLinks) == 0 {
		return "", errors.New("account has no vehicles")
	}
	return vehicles.VehicleLinks[0].VIN, nil
}

func (client *CloudStatusClient) batteryStatus(ctx context.Context, jwt string, accountId string, vin string) (*BatteryStatus, error) {
	var payload struct {
		Data struct {
			Attributes struct {
				BatteryLevel    *float64 `json:"batteryLevel"`
				BatteryAutonomy *float64 `json:"batteryAutonomy"`
				PlugStatus      *int     `json:"plugStatus"`
				ChargingStatus  *float64 `json:"chargingStatus"`
			} `json:"attributes"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/accounts/%s/kamereon/kca/car-adapter/v2/cars/%s/battery-status", accountId, vin)
	err := client.kamereonGet(ctx, jwt, path, &payload)
	if err != nil {
		return nil, err
	}
	return &BatteryStatus{
		SocPercent:     payload.Data.Attributes.BatteryLevel,
		AutonomyKm:     payload.Data.Attributes.BatteryAutonomy,
		PlugStatus:     payload.Data.Attributes.PlugStatus,
		ChargingStatus: payload.Data.Attributes.ChargingStatus,
		Timestamp:      time.Now(),
	}, nil
}
