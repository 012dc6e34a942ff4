package fuelprice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MicBur/Fuel-prediction-API/internal/common"
)

const defaultBaseURL = "https://creativecommons.tankerkoenig.de/json"

// MaxBatchSize is the provider's limit on ids per batch price query.
// Callers must chunk larger id sets themselves.
const MaxBatchSize = 10

var (
	// ErrMissingAPIKey indicates the Tankerkoenig credential is not configured.
	// It is raised before any network call and is never retryable.
	ErrMissingAPIKey = errors.New("fuelprice: api key not configured")

	// ErrUpstream indicates the provider answered but flagged the request as
	// failed in its payload.
	ErrUpstream = errors.New("fuelprice: upstream request failed")
)

// FuelType is a fuel grade quoted by the provider.
type FuelType string

const (
	FuelTypeDiesel FuelType = "diesel"
	FuelTypeE5     FuelType = "e5"
	FuelTypeE10    FuelType = "e10"
)

// Valid reports whether ft is one of the known fuel grades.
func (ft FuelType) Valid() bool {
	switch ft {
	case FuelTypeDiesel, FuelTypeE5, FuelTypeE10:
		return true
	}
	return false
}

// Station is a fuel station returned by the proximity search, including the
// prices current at query time.
type Station struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Street      string   `json:"street"`
	Place       string   `json:"place"`
	HouseNumber string   `json:"houseNumber"`
	PostCode    int      `json:"postCode"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	DistanceKM  *float64 `json:"dist"`
	Diesel      *float64 `json:"diesel"`
	E5          *float64 `json:"e5"`
	E10         *float64 `json:"e10"`
	IsOpen      *bool    `json:"isOpen"`
}

// PriceQuote holds the current per-grade prices for a single station.
// A nil price means the station does not quote that grade right now.
type PriceQuote struct {
	Status string   `json:"status"`
	Diesel *float64 `json:"diesel"`
	E5     *float64 `json:"e5"`
	E10    *float64 `json:"e10"`
}

// Price returns the quoted price for the given fuel grade, or nil.
func (q PriceQuote) Price(ft FuelType) *float64 {
	switch ft {
	case FuelTypeDiesel:
		return q.Diesel
	case FuelTypeE5:
		return q.E5
	case FuelTypeE10:
		return q.E10
	}
	return nil
}

// StationDetails is the extended metadata returned by the single-station
// lookup. Not used on the ETL hot path.
type StationDetails struct {
	Station
	State        string `json:"state"`
	WholeDay     bool   `json:"wholeDay"`
	OpeningTimes []struct {
		Text  string `json:"text"`
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"openingTimes"`
}

// Client talks to the Tankerkoenig JSON API.
type Client struct {
	apiKey  string
	baseURL string
	rc      *common.ResilientClient
}

// NewClient creates a Client using the shared HTTP client. An empty apiKey is
// allowed at construction time; calls will fail with ErrMissingAPIKey.
func NewClient(client *http.Client, apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		rc:      common.NewResilientClient(client, "tankerkoenig"),
	}
}

// apiResponse is the envelope common to all Tankerkoenig endpoints: the
// payload carries its own success flag independent of the transport status.
type apiResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out interface{ envelope() apiResponse }) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	params.Set("apikey", c.apiKey)
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	if err := c.rc.GetJSON(ctx, u, out); err != nil {
		return fmt.Errorf("fuelprice: %s request: %w", endpoint, err)
	}

	if env := out.envelope(); !env.OK {
		msg := env.Message
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("%w: %s", ErrUpstream, msg)
	}
	return nil
}

type listResponse struct {
	apiResponse
	Stations []Station `json:"stations"`
}

func (r *listResponse) envelope() apiResponse { return r.apiResponse }

// ListStations runs a proximity search around (lat, lng) within radiusKM,
// quoting the given fuel grade. sortBy may be "dist" or "price" and affects
// only the order of the result.
func (c *Client) ListStations(ctx context.Context, lat, lng, radiusKM float64, fuel FuelType, sortBy string) ([]Station, error) {
	if sortBy == "" {
		sortBy = "dist"
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lng", fmt.Sprintf("%f", lng))
	params.Set("rad", fmt.Sprintf("%g", radiusKM))
	params.Set("type", string(fuel))
	params.Set("sort", sortBy)

	var payload listResponse
	if err := c.get(ctx, "list.php", params, &payload); err != nil {
		return nil, err
	}
	return payload.Stations, nil
}

type pricesResponse struct {
	apiResponse
	Prices map[string]PriceQuote `json:"prices"`
}

func (r *pricesResponse) envelope() apiResponse { return r.apiResponse }

// GetPrices returns current prices for up to MaxBatchSize station ids.
// An empty id list returns an empty map without a network call.
func (c *Client) GetPrices(ctx context.Context, stationIDs []string) (map[string]PriceQuote, error) {
	if len(stationIDs) == 0 {
		return map[string]PriceQuote{}, nil
	}
	if len(stationIDs) > MaxBatchSize {
		return nil, fmt.Errorf("fuelprice: at most %d station ids per price query, got %d", MaxBatchSize, len(stationIDs))
	}

	params := url.Values{}
	params.Set("ids", strings.Join(stationIDs, ","))

	var payload pricesResponse
	if err := c.get(ctx, "prices.php", params, &payload); err != nil {
		return nil, err
	}
	if payload.Prices == nil {
		return map[string]PriceQuote{}, nil
	}
	return payload.Prices, nil
}

type detailResponse struct {
	apiResponse
	Station StationDetails `json:"station"`
}

func (r *detailResponse) envelope() apiResponse { return r.apiResponse }

// GetStationDetails returns extended metadata for a single station.
func (c *Client) GetStationDetails(ctx context.Context, stationID string) (StationDetails, error) {
	params := url.Values{}
	params.Set("id", stationID)

	var payload detailResponse
	if err := c.get(ctx, "detail.php", params, &payload); err != nil {
		return StationDetails{}, err
	}
	return payload.Station, nil
}
