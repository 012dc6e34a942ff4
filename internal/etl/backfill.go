package etl

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/MicBur/Fuel-prediction-API/internal/store"
	"github.com/MicBur/Fuel-prediction-API/internal/weather"
)

// ArchiveSource is the slice of the historical archive the backfill job
// needs.
type ArchiveSource interface {
	FetchHourly(ctx context.Context, lat, lng float64, start, end time.Time) ([]weather.ArchiveRecord, error)
}

// Backfiller imports a trailing window of hourly archive observations into
// the weather series. It is triggered manually, never scheduled, and is safe
// to re-run over overlapping windows: rows whose timestamp already exists
// are skipped.
type Backfiller struct {
	store   *store.Store
	archive ArchiveSource
	lat     float64
	lng     float64
}

// NewBackfiller wires the backfill job for a fixed point.
func NewBackfiller(st *store.Store, archive ArchiveSource, lat, lng float64) *Backfiller {
	return &Backfiller{
		store:   st,
		archive: archive,
		lat:     lat,
		lng:     lng,
	}
}

// Backfill fetches the hourly archive dataset for [now - days, now] and
// inserts the rows not present yet, converting from the archive's native
// units. Returns the number of rows actually inserted, which is zero on an
// immediate re-run over the same window.
func (b *Backfiller) Backfill(ctx context.Context, days int) (int, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	records, err := b.archive.FetchHourly(ctx, b.lat, b.lng, start, end)
	if err != nil {
		return 0, fmt.Errorf("etl: fetch archive window: %w", err)
	}
	if len(records) == 0 {
		log.Println("etl: archive returned no historical weather rows")
		return 0, nil
	}

	inserted := 0
	for _, rec := range records {
		ts := rec.Timestamp.UTC().Truncate(time.Second)

		exists, err := b.store.WeatherExistsAt(ts)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}

		row := store.WeatherObservation{
			CapturedAt:      ts,
			TemperatureC:    cleanArchiveValue(rec.TemperatureC),
			HumidityPct:     cleanArchiveValue(rec.HumidityPct),
			WindSpeedMS:     windSpeedMS(rec.WindSpeedKMH),
			PrecipitationMM: cleanArchiveValue(rec.PrecipitationMM),
			CloudCoverPct:   cloudCoverPct(rec.ConditionCode),
		}
		if err := b.store.InsertWeatherObservations([]store.WeatherObservation{row}); err != nil {
			return inserted, err
		}
		inserted++
	}

	log.Printf("etl: backfilled %d historical weather rows (days=%d)", inserted, days)
	return inserted, nil
}

// cleanArchiveValue turns NaN markers from the archive into absent values.
func cleanArchiveValue(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// windSpeedMS converts the archive's km/h wind speed to m/s.
func windSpeedMS(kmh *float64) *float64 {
	v := cleanArchiveValue(kmh)
	if v == nil {
		return nil
	}
	ms := *v / 3.6
	return &ms
}

// cloudCoverPct approximates cloud cover from the archive's 0-9 ordinal
// condition code: clamp to [0,9], scale to a percentage, round to two
// decimal places.
func cloudCoverPct(code *float64) *float64 {
	v := cleanArchiveValue(code)
	if v == nil {
		return nil
	}
	normalized := math.Max(0, math.Min(1, *v/9.0))
	pct := math.Round(normalized*100.0*100) / 100
	return &pct
}
