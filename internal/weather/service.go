package weather

import (
	"context"
	"log"
	"time"
)

// ForecastProvider abstracts the live-forecast upstream (OpenWeather).
type ForecastProvider interface {
	FetchForecast(ctx context.Context, lat, lng float64) ([]Point, error)
}

// HistoricalProvider abstracts the station-keyed historical upstream (DWD).
type HistoricalProvider interface {
	FetchHistorical(ctx context.Context, stationID string) ([]HistoricalRecord, error)
}

// Service combines the live-forecast and historical providers behind one
// normalized interface for the configured coordinates.
type Service struct {
	forecast   ForecastProvider
	historical HistoricalProvider
	lat        float64
	lng        float64
}

// NewService creates a Service for a fixed point.
func NewService(forecast ForecastProvider, historical HistoricalProvider, lat, lng float64) *Service {
	return &Service{
		forecast:   forecast,
		historical: historical,
		lat:        lat,
		lng:        lng,
	}
}

// GetForecast returns the live forecast sequence in chronological order.
// An unconfigured or empty upstream yields an empty slice, not an error;
// callers must treat that as "no new weather this cycle".
func (s *Service) GetForecast(ctx context.Context) ([]Point, error) {
	points, err := s.forecast.FetchForecast(ctx, s.lat, s.lng)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		log.Println("weather: forecast provider returned no points")
	}
	return points, nil
}

// GetLatestTemperature fetches the forecast and returns the temperature of
// the point closest in time to now, or nil if the forecast is empty. Ties
// resolve to the first point encountered.
func (s *Service) GetLatestTemperature(ctx context.Context) (*float64, error) {
	points, err := s.GetForecast(ctx)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	best := points[0]
	bestDiff := absDuration(best.Timestamp.Sub(now))
	for _, p := range points[1:] {
		if d := absDuration(p.Timestamp.Sub(now)); d < bestDiff {
			best = p
			bestDiff = d
		}
	}
	return best.TemperatureC, nil
}

// GetHistorical returns per-station historical records from the national
// weather service. Defined for interface completeness; the current provider
// always answers with an empty sequence.
func (s *Service) GetHistorical(ctx context.Context, stationID string) ([]HistoricalRecord, error) {
	return s.historical.FetchHistorical(ctx, stationID)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
