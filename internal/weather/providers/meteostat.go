package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/MicBur/Fuel-prediction-API/internal/common"
	"github.com/MicBur/Fuel-prediction-API/internal/weather"
)

const archiveTimeLayout = "2006-01-02 15:04:05"

// MeteostatClient fetches hourly historical observations from the Meteostat
// point API. Values stay in the archive's native units; the backfill job owns
// the unit conversions.
type MeteostatClient struct {
	apiKey  string
	baseURL string
	rc      *common.ResilientClient
}

// NewMeteostatClient creates a MeteostatClient.
func NewMeteostatClient(client *http.Client, apiKey string) *MeteostatClient {
	return &MeteostatClient{
		apiKey:  apiKey,
		baseURL: "https://meteostat.p.rapidapi.com/point/hourly",
		rc:      common.NewResilientClient(client, "meteostat"),
	}
}

type meteostatRow struct {
	Time string   `json:"time"`
	Temp *float64 `json:"temp"`
	Rhum *float64 `json:"rhum"`
	Wspd *float64 `json:"wspd"`
	Prcp *float64 `json:"prcp"`
	Coco *float64 `json:"coco"`
}

// FetchHourly returns the hourly archive rows for the given point and UTC
// window, oldest first. Rows with unparseable timestamps are dropped; numeric
// gaps come back as nil values.
func (c *MeteostatClient) FetchHourly(ctx context.Context, lat, lng float64, start, end time.Time) ([]weather.ArchiveRecord, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lng))
	params.Set("start", start.UTC().Format("2006-01-02"))
	params.Set("end", end.UTC().Format("2006-01-02"))
	params.Set("tz", "UTC")
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	var payload struct {
		Data []meteostatRow `json:"data"`
	}
	u := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	if err := c.rc.GetJSON(ctx, u, &payload); err != nil {
		return nil, fmt.Errorf("meteostat: hourly request: %w", err)
	}

	records := make([]weather.ArchiveRecord, 0, len(payload.Data))
	for _, row := range payload.Data {
		ts, err := time.ParseInLocation(archiveTimeLayout, row.Time, time.UTC)
		if err != nil {
			continue
		}
		records = append(records, weather.ArchiveRecord{
			Timestamp:       ts,
			TemperatureC:    cleanValue(row.Temp),
			HumidityPct:     cleanValue(row.Rhum),
			WindSpeedKMH:    cleanValue(row.Wspd),
			PrecipitationMM: cleanValue(row.Prcp),
			ConditionCode:   cleanValue(row.Coco),
		})
	}
	return records, nil
}
