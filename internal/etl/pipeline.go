package etl

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MicBur/Fuel-prediction-API/internal/config"
	"github.com/MicBur/Fuel-prediction-API/internal/fuelprice"
	"github.com/MicBur/Fuel-prediction-API/internal/store"
	"github.com/MicBur/Fuel-prediction-API/internal/weather"
)

// PriceSource is the slice of the fuel-price adapter the pipeline needs.
type PriceSource interface {
	ListStations(ctx context.Context, lat, lng, radiusKM float64, fuel fuelprice.FuelType, sortBy string) ([]fuelprice.Station, error)
	GetPrices(ctx context.Context, stationIDs []string) (map[string]fuelprice.PriceQuote, error)
}

// WeatherSource is the slice of the weather adapter the pipeline needs.
type WeatherSource interface {
	GetForecast(ctx context.Context) ([]weather.Point, error)
}

// Report describes one synchronization cycle step by step. A failed step
// leaves its name in FailedStep and the later steps unattempted; writes
// committed by earlier steps stay committed.
type Report struct {
	StationsSynced      int    `json:"stationsSynced"`
	PricesCaptured      int    `json:"pricesCaptured"`
	WeatherPointsStored int    `json:"weatherPointsStored"`
	FailedStep          string `json:"failedStep,omitempty"`
	Err                 error  `json:"-"`
}

// Pipeline runs one complete, idempotent synchronization cycle: station
// discovery, price capture, live weather capture. Steps execute sequentially
// and each commits its own writes; there is no cross-step transaction and no
// internal retry - the next scheduled cycle heals a failed one.
type Pipeline struct {
	store   *store.Store
	prices  PriceSource
	weather WeatherSource

	lat      float64
	lng      float64
	radiusKM float64
	fuelType fuelprice.FuelType
}

// NewPipeline wires the pipeline with its adapters and configuration.
func NewPipeline(st *store.Store, prices PriceSource, ws WeatherSource, cfg *config.AppConfig) *Pipeline {
	return &Pipeline{
		store:    st,
		prices:   prices,
		weather:  ws,
		lat:      cfg.Lat,
		lng:      cfg.Lng,
		radiusKM: cfg.SearchRadiusKM,
		fuelType: cfg.FuelType,
	}
}

// RunAll executes station sync, price capture and weather capture in order
// and returns a per-step report. The first failing step aborts the cycle;
// its predecessors' commits are retained.
func (p *Pipeline) RunAll(ctx context.Context) Report {
	var rep Report

	n, err := p.SyncStations(ctx)
	rep.StationsSynced = n
	if err != nil {
		rep.FailedStep = "sync_stations"
		rep.Err = err
		log.Printf("etl: sync_stations failed: %v", err)
		return rep
	}

	n, err = p.CapturePrices(ctx)
	rep.PricesCaptured = n
	if err != nil {
		rep.FailedStep = "capture_prices"
		rep.Err = err
		log.Printf("etl: capture_prices failed: %v", err)
		return rep
	}

	n, err = p.CaptureWeather(ctx)
	rep.WeatherPointsStored = n
	if err != nil {
		rep.FailedStep = "capture_weather"
		rep.Err = err
		log.Printf("etl: capture_weather failed: %v", err)
		return rep
	}

	return rep
}

// SyncStations fetches the station list for the configured point and upserts
// every returned station by id, overwriting mutable attributes in full. The
// batch commits once. Returns the number of stations processed.
func (p *Pipeline) SyncStations(ctx context.Context) (int, error) {
	stations, err := p.prices.ListStations(ctx, p.lat, p.lng, p.radiusKM, p.fuelType, "dist")
	if err != nil {
		return 0, fmt.Errorf("etl: list stations: %w", err)
	}

	rows := make([]store.Station, 0, len(stations))
	for _, st := range stations {
		rows = append(rows, store.Station{
			ID:          st.ID,
			Name:        st.Name,
			Brand:       st.Brand,
			Lat:         st.Lat,
			Lng:         st.Lng,
			Street:      st.Street,
			HouseNumber: st.HouseNumber,
			PostCode:    st.PostCode,
		})
	}

	if err := p.store.UpsertStations(rows); err != nil {
		return 0, err
	}

	log.Printf("etl: synced %d stations", len(rows))
	return len(rows), nil
}

// CapturePrices queries current prices for all known stations in batches of
// at most fuelprice.MaxBatchSize and appends one observation per station
// that quotes the configured fuel grade. Unquoted stations are skipped
// silently. An empty station table short-circuits with a warning. Each batch
// commits independently; a failing batch leaves earlier batches applied.
func (p *Pipeline) CapturePrices(ctx context.Context) (int, error) {
	ids, err := p.store.StationIDs()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		log.Println("etl: no stations cached yet; skipping price capture")
		return 0, nil
	}

	now := time.Now().UTC().Truncate(time.Second)
	inserted := 0

	for start := 0; start < len(ids); start += fuelprice.MaxBatchSize {
		end := start + fuelprice.MaxBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		quotes, err := p.prices.GetPrices(ctx, ids[start:end])
		if err != nil {
			return inserted, fmt.Errorf("etl: price batch starting at %d: %w", start, err)
		}

		batch := make([]store.PriceObservation, 0, len(quotes))
		for stationID, quote := range quotes {
			price := quote.Price(p.fuelType)
			if price == nil {
				continue
			}
			batch = append(batch, store.PriceObservation{
				StationID:  stationID,
				FuelType:   string(p.fuelType),
				PriceEUR:   *price,
				CapturedAt: now,
			})
		}

		if err := p.store.InsertPriceObservations(batch); err != nil {
			return inserted, err
		}
		inserted += len(batch)
	}

	log.Printf("etl: captured %s prices for %d of %d stations", p.fuelType, inserted, len(ids))
	return inserted, nil
}

// CaptureWeather fetches the live forecast and appends one observation per
// point whose timestamp is not stored yet. Forecast windows overlap between
// cycles, so the timestamp check keeps the series duplicate-free. An empty
// forecast is a valid, logged outcome.
func (p *Pipeline) CaptureWeather(ctx context.Context) (int, error) {
	points, err := p.weather.GetForecast(ctx)
	if err != nil {
		return 0, fmt.Errorf("etl: fetch forecast: %w", err)
	}
	if len(points) == 0 {
		log.Println("etl: forecast empty; no weather captured this cycle")
		return 0, nil
	}

	rows := make([]store.WeatherObservation, 0, len(points))
	seen := make(map[time.Time]struct{}, len(points))
	for _, pt := range points {
		ts := pt.Timestamp.UTC().Truncate(time.Second)
		if _, dup := seen[ts]; dup {
			continue
		}
		seen[ts] = struct{}{}
		exists, err := p.store.WeatherExistsAt(ts)
		if err != nil {
			return 0, err
		}
		if exists {
			continue
		}
		rows = append(rows, store.WeatherObservation{
			CapturedAt:      ts,
			TemperatureC:    pt.TemperatureC,
			HumidityPct:     pt.HumidityPct,
			WindSpeedMS:     pt.WindSpeedMS,
			PrecipitationMM: pt.PrecipitationMM,
			CloudCoverPct:   pt.CloudCoverPct,
		})
	}

	if err := p.store.InsertWeatherObservations(rows); err != nil {
		return 0, err
	}

	log.Printf("etl: persisted %d of %d forecast points", len(rows), len(points))
	return len(rows), nil
}
