package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenWeatherMissingKeyReturnsEmptyForecast(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(&http.Client{Timeout: 5 * time.Second}, "")
	c.baseURL = srv.URL

	points, err := c.FetchForecast(context.Background(), 53.55, 9.99)
	require.NoError(t, err, "a missing credential degrades to empty, not an error")
	require.Empty(t, points)
	require.Zero(t, atomic.LoadInt64(&calls))
}

func TestOpenWeatherParsesHourlyForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "metric", r.URL.Query().Get("units"))
		require.Equal(t, "ow-key", r.URL.Query().Get("appid"))

		fmt.Fprint(w, `{
			"hourly": [
				{"dt": 1754035200, "temp": 18.4, "humidity": 71, "wind_speed": 4.2, "clouds": 40, "rain": {"1h": 0.3}},
				{"dt": 1754038800, "temp": 19.0}
			]
		}`)
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(&http.Client{Timeout: 5 * time.Second}, "ow-key")
	c.baseURL = srv.URL

	points, err := c.FetchForecast(context.Background(), 53.55, 9.99)
	require.NoError(t, err)
	require.Len(t, points, 2)

	first := points[0]
	require.Equal(t, time.Unix(1754035200, 0).UTC(), first.Timestamp)
	require.Equal(t, 18.4, *first.TemperatureC)
	require.Equal(t, 71.0, *first.HumidityPct)
	require.Equal(t, 4.2, *first.WindSpeedMS)
	require.Equal(t, 0.3, *first.PrecipitationMM)
	require.Equal(t, 40.0, *first.CloudCoverPct)

	second := points[1]
	require.Equal(t, 19.0, *second.TemperatureC)
	require.Nil(t, second.HumidityPct, "upstream gaps stay absent")
	require.Nil(t, second.PrecipitationMM)
}

func TestOpenWeatherMalformedPayloadYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"unexpected": true}`)
	}))
	defer srv.Close()

	c := NewOpenWeatherClient(&http.Client{Timeout: 5 * time.Second}, "ow-key")
	c.baseURL = srv.URL

	points, err := c.FetchForecast(context.Background(), 53.55, 9.99)
	require.NoError(t, err)
	require.Empty(t, points)
}

func TestMeteostatParsesHourlyRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "UTC", r.URL.Query().Get("tz"))

		fmt.Fprint(w, `{
			"data": [
				{"time": "2025-07-25 00:00:00", "temp": 14.1, "rhum": 88, "wspd": 7.6, "prcp": 0.0, "coco": 3},
				{"time": "2025-07-25 01:00:00", "temp": null, "rhum": null, "wspd": 36.0, "prcp": null, "coco": null},
				{"time": "not-a-time", "temp": 1.0}
			]
		}`)
	}))
	defer srv.Close()

	c := NewMeteostatClient(&http.Client{Timeout: 5 * time.Second}, "")
	c.baseURL = srv.URL

	start := time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC)
	records, err := c.FetchHourly(context.Background(), 53.55, 9.99, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, records, 2, "rows with unparseable timestamps are dropped")

	require.Equal(t, start, records[0].Timestamp)
	require.Equal(t, 14.1, *records[0].TemperatureC)
	require.Equal(t, 3.0, *records[0].ConditionCode)

	require.Nil(t, records[1].TemperatureC, "JSON nulls stay absent")
	require.Equal(t, 36.0, *records[1].WindSpeedKMH, "wind stays in the archive's native km/h")
}

func TestMeteostatUpstreamFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewMeteostatClient(&http.Client{Timeout: 5 * time.Second}, "")
	c.baseURL = srv.URL

	_, err := c.FetchHourly(context.Background(), 53.55, 9.99, time.Now().Add(-24*time.Hour), time.Now())
	require.Error(t, err)
}

func TestDWDHistoricalIsEmpty(t *testing.T) {
	c := NewDWDClient("")
	records, err := c.FetchHistorical(context.Background(), "10147")
	require.NoError(t, err)
	require.Empty(t, records)
}
