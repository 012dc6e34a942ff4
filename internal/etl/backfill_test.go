package etl

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MicBur/Fuel-prediction-API/internal/weather"
)

type fakeArchive struct {
	records []weather.ArchiveRecord
	err     error
	calls   int
}

func (f *fakeArchive) FetchHourly(ctx context.Context, lat, lng float64, start, end time.Time) ([]weather.ArchiveRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func hourlyRecords(n int) []weather.ArchiveRecord {
	base := time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC)
	records := make([]weather.ArchiveRecord, n)
	for i := range records {
		records[i] = weather.ArchiveRecord{
			Timestamp:       base.Add(time.Duration(i) * time.Hour),
			TemperatureC:    f64(15.0 + float64(i)),
			HumidityPct:     f64(70),
			WindSpeedKMH:    f64(18),
			PrecipitationMM: f64(0.2),
			ConditionCode:   f64(3),
		}
	}
	return records
}

func TestBackfillInsertsAndConverts(t *testing.T) {
	st := newTestStore(t)
	archive := &fakeArchive{records: []weather.ArchiveRecord{{
		Timestamp:       time.Date(2025, 7, 25, 6, 0, 0, 0, time.UTC),
		TemperatureC:    f64(14.3),
		HumidityPct:     f64(82),
		WindSpeedKMH:    f64(36.0),
		PrecipitationMM: f64(1.1),
		ConditionCode:   f64(9),
	}}}

	b := NewBackfiller(st, archive, 53.5511, 9.9937)

	inserted, err := b.Backfill(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	obs, err := st.WeatherRange(
		time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 26, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, obs, 1)

	require.Equal(t, 14.3, *obs[0].TemperatureC)
	require.Equal(t, 82.0, *obs[0].HumidityPct)
	require.Equal(t, 10.0, *obs[0].WindSpeedMS, "36 km/h is exactly 10 m/s")
	require.Equal(t, 1.1, *obs[0].PrecipitationMM)
	require.Equal(t, 100.0, *obs[0].CloudCoverPct, "condition code 9 is full cover")
}

func TestBackfillIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	archive := &fakeArchive{records: hourlyRecords(24)}
	b := NewBackfiller(st, archive, 53.5511, 9.9937)

	inserted, err := b.Backfill(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 24, inserted)

	// Re-running over an unchanged window must insert nothing.
	inserted, err = b.Backfill(context.Background(), 7)
	require.NoError(t, err)
	require.Zero(t, inserted)

	total, err := st.CountWeatherObservations()
	require.NoError(t, err)
	require.EqualValues(t, 24, total)
}

func TestBackfillNormalizesAbsentValues(t *testing.T) {
	st := newTestStore(t)
	nan := math.NaN()
	archive := &fakeArchive{records: []weather.ArchiveRecord{{
		Timestamp:       time.Date(2025, 7, 25, 12, 0, 0, 0, time.UTC),
		TemperatureC:    &nan,
		HumidityPct:     nil,
		WindSpeedKMH:    &nan,
		PrecipitationMM: nil,
		ConditionCode:   &nan,
	}}}

	b := NewBackfiller(st, archive, 53.5511, 9.9937)
	inserted, err := b.Backfill(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, 1, inserted)

	obs, err := st.WeatherRange(
		time.Date(2025, 7, 25, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 7, 26, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	require.Len(t, obs, 1)

	// NaN markers must be stored as absent, never as numeric zero.
	require.Nil(t, obs[0].TemperatureC)
	require.Nil(t, obs[0].HumidityPct)
	require.Nil(t, obs[0].WindSpeedMS)
	require.Nil(t, obs[0].PrecipitationMM)
	require.Nil(t, obs[0].CloudCoverPct)
}

func TestBackfillEmptyDatasetReturnsZero(t *testing.T) {
	st := newTestStore(t)
	b := NewBackfiller(st, &fakeArchive{}, 53.5511, 9.9937)

	inserted, err := b.Backfill(context.Background(), 7)
	require.NoError(t, err)
	require.Zero(t, inserted)
}

func TestBackfillArchiveErrorIsFatal(t *testing.T) {
	st := newTestStore(t)
	b := NewBackfiller(st, &fakeArchive{err: errors.New("archive down")}, 53.5511, 9.9937)

	_, err := b.Backfill(context.Background(), 7)
	require.Error(t, err)
}

func TestWindSpeedConversion(t *testing.T) {
	require.Equal(t, 10.0, *windSpeedMS(f64(36.0)))
	require.Nil(t, windSpeedMS(nil))

	nan := math.NaN()
	require.Nil(t, windSpeedMS(&nan))
}

func TestCloudCoverConversion(t *testing.T) {
	cases := []struct {
		code float64
		want float64
	}{
		{0, 0.0},
		{4.5, 50.0},
		{9, 100.0},
		{12, 100.0},  // clamped high
		{-3, 0.0},    // clamped low
		{1, 11.11},   // rounded to 2 decimals
		{2, 22.22},
	}
	for _, tc := range cases {
		got := cloudCoverPct(&tc.code)
		require.NotNil(t, got)
		require.InDelta(t, tc.want, *got, 1e-9, "code %v", tc.code)
	}

	require.Nil(t, cloudCoverPct(nil))
}
