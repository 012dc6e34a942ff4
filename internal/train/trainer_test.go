package train

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MicBur/Fuel-prediction-API/internal/fuelprice"
	"github.com/MicBur/Fuel-prediction-API/internal/store"
)

type stubTemperature struct {
	temp *float64
	err  error
}

func (s *stubTemperature) GetLatestTemperature(ctx context.Context) (*float64, error) {
	return s.temp, s.err
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "train.db"))
	require.NoError(t, err)
	return st
}

func f64(v float64) *float64 { return &v }

func TestRetrainSnapshotsFeatureVector(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.UpsertStations([]store.Station{{ID: "station-1"}}))
	require.NoError(t, st.InsertPriceObservations([]store.PriceObservation{
		{StationID: "station-1", FuelType: "e5", PriceEUR: 1.80, CapturedAt: time.Now().UTC()},
	}))

	tr := NewTrainer(st, &stubTemperature{temp: f64(19.5)}, fuelprice.FuelTypeE5)
	require.NoError(t, tr.Retrain(context.Background()))

	fvs, err := st.UnlabeledFeatureVectors(time.Now().UTC().Add(48 * time.Hour))
	require.NoError(t, err)
	require.Len(t, fvs, 1)

	fv := fvs[0]
	require.Equal(t, "e5", fv.FuelType)
	require.NotNil(t, fv.CurrentPrice)
	require.Equal(t, 1.80, *fv.CurrentPrice)
	require.Contains(t, fv.FeaturesJSON, `"temperature_c":19.5`)
	require.True(t, fv.TargetTimestamp.After(time.Now().UTC()))
}

func TestRetrainWithoutDataStillRecordsVector(t *testing.T) {
	st := newTestStore(t)

	tr := NewTrainer(st, &stubTemperature{}, fuelprice.FuelTypeE5)
	require.NoError(t, tr.Retrain(context.Background()))

	fvs, err := st.UnlabeledFeatureVectors(time.Now().UTC().Add(48 * time.Hour))
	require.NoError(t, err)
	require.Len(t, fvs, 1)
	require.Nil(t, fvs[0].CurrentPrice)
}

func TestRetrainLabelsMaturedVectors(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	// A vector whose target has passed, and the price observed afterwards.
	require.NoError(t, st.InsertFeatureVector(&store.FeatureVector{
		TargetTimestamp: now.Add(-time.Hour),
		FuelType:        "e5",
		FeaturesJSON:    "{}",
		CreatedAt:       now.Add(-25 * time.Hour),
	}))
	require.NoError(t, st.UpsertStations([]store.Station{{ID: "station-1"}}))
	require.NoError(t, st.InsertPriceObservations([]store.PriceObservation{
		{StationID: "station-1", FuelType: "e5", PriceEUR: 1.85, CapturedAt: now.Add(-30 * time.Minute)},
	}))

	tr := NewTrainer(st, &stubTemperature{}, fuelprice.FuelTypeE5)
	require.NoError(t, tr.Retrain(context.Background()))

	// The matured vector is labeled; only the fresh snapshot stays unlabeled.
	unlabeled, err := st.UnlabeledFeatureVectors(now)
	require.NoError(t, err)
	require.Empty(t, unlabeled)
}
