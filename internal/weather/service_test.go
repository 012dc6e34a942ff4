package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubForecast struct {
	points []Point
	err    error
}

func (s *stubForecast) FetchForecast(ctx context.Context, lat, lng float64) ([]Point, error) {
	return s.points, s.err
}

type stubHistorical struct{}

func (s *stubHistorical) FetchHistorical(ctx context.Context, stationID string) ([]HistoricalRecord, error) {
	return nil, nil
}

func f64(v float64) *float64 { return &v }

func newTestService(points []Point, err error) *Service {
	return NewService(&stubForecast{points: points, err: err}, &stubHistorical{}, 53.5511, 9.9937)
}

func TestGetForecastPassesThrough(t *testing.T) {
	points := []Point{{Timestamp: time.Now().UTC(), TemperatureC: f64(18)}}
	svc := newTestService(points, nil)

	got, err := svc.GetForecast(context.Background())
	require.NoError(t, err)
	require.Equal(t, points, got)
}

func TestGetForecastEmptyIsNotAnError(t *testing.T) {
	svc := newTestService(nil, nil)

	got, err := svc.GetForecast(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestGetLatestTemperaturePicksClosestPoint(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestService([]Point{
		{Timestamp: now.Add(-3 * time.Hour), TemperatureC: f64(10)},
		{Timestamp: now.Add(20 * time.Minute), TemperatureC: f64(21)},
		{Timestamp: now.Add(5 * time.Hour), TemperatureC: f64(30)},
	}, nil)

	temp, err := svc.GetLatestTemperature(context.Background())
	require.NoError(t, err)
	require.NotNil(t, temp)
	require.Equal(t, 21.0, *temp)
}

func TestGetLatestTemperatureTieBreaksOnFirstEncountered(t *testing.T) {
	ts := time.Now().UTC().Add(time.Hour)
	svc := newTestService([]Point{
		{Timestamp: ts, TemperatureC: f64(11)},
		{Timestamp: ts, TemperatureC: f64(99)},
	}, nil)

	temp, err := svc.GetLatestTemperature(context.Background())
	require.NoError(t, err)
	require.Equal(t, 11.0, *temp)
}

func TestGetLatestTemperatureEmptyForecast(t *testing.T) {
	svc := newTestService(nil, nil)

	temp, err := svc.GetLatestTemperature(context.Background())
	require.NoError(t, err)
	require.Nil(t, temp)
}

func TestGetLatestTemperatureForecastError(t *testing.T) {
	svc := newTestService(nil, errors.New("boom"))

	_, err := svc.GetLatestTemperature(context.Background())
	require.Error(t, err)
}

func TestGetHistoricalDelegates(t *testing.T) {
	svc := newTestService(nil, nil)

	records, err := svc.GetHistorical(context.Background(), "10147")
	require.NoError(t, err)
	require.Empty(t, records, "station-keyed archive access is not implemented yet")
}
