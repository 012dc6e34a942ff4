package providers

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/MicBur/Fuel-prediction-API/internal/common"
	"github.com/MicBur/Fuel-prediction-API/internal/weather"
)

// OpenWeatherClient fetches the hourly forecast from the OpenWeather One Call
// API and normalizes it into weather.Point values.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	rc      *common.ResilientClient
}

// NewOpenWeatherClient creates an OpenWeatherClient. A missing apiKey is not
// an error; FetchForecast degrades to an empty forecast in that case.
func NewOpenWeatherClient(client *http.Client, apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/3.0/onecall",
		rc:      common.NewResilientClient(client, "openweather"),
	}
}

type oneCallHour struct {
	Dt       int64    `json:"dt"`
	Temp     *float64 `json:"temp"`
	Humidity *float64 `json:"humidity"`
	WindMS   *float64 `json:"wind_speed"`
	Clouds   *float64 `json:"clouds"`
	Rain     *struct {
		OneH *float64 `json:"1h"`
	} `json:"rain"`
}

// FetchForecast returns the hourly forecast for the given point, oldest
// first. Without an API key it returns an empty slice and logs a warning so
// the capture cycle treats the result as "no new weather".
func (c *OpenWeatherClient) FetchForecast(ctx context.Context, lat, lng float64) ([]weather.Point, error) {
	if c.apiKey == "" {
		log.Println("openweather: api key missing; returning empty forecast")
		return nil, nil
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lng))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	var payload struct {
		Hourly []oneCallHour `json:"hourly"`
	}
	u := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	if err := c.rc.GetJSON(ctx, u, &payload); err != nil {
		return nil, fmt.Errorf("openweather: forecast request: %w", err)
	}

	points := make([]weather.Point, 0, len(payload.Hourly))
	for _, h := range payload.Hourly {
		var precip *float64
		if h.Rain != nil {
			precip = h.Rain.OneH
		}
		points = append(points, weather.Point{
			Timestamp:       time.Unix(h.Dt, 0).UTC(),
			TemperatureC:    cleanValue(h.Temp),
			HumidityPct:     cleanValue(h.Humidity),
			WindSpeedMS:     cleanValue(h.WindMS),
			PrecipitationMM: cleanValue(precip),
			CloudCoverPct:   cleanValue(h.Clouds),
		})
	}
	return points, nil
}

// cleanValue normalizes degenerate upstream numbers: NaN and infinity markers
// become absent values rather than leaking into storage.
func cleanValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
