package train

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MicBur/Fuel-prediction-API/internal/fuelprice"
	"github.com/MicBur/Fuel-prediction-API/internal/store"
)

// TemperatureSource is the slice of the weather adapter the trainer needs.
type TemperatureSource interface {
	GetLatestTemperature(ctx context.Context) (*float64, error)
}

// Trainer is the retraining hook. Model fitting itself is not implemented
// yet; each invocation labels past feature vectors with the price actually
// observed at their target timestamp and snapshots a fresh vector for the
// next horizon, so the training contract accumulates data in the meantime.
type Trainer struct {
	store    *store.Store
	weather  TemperatureSource
	fuelType fuelprice.FuelType
	horizon  time.Duration
}

// NewTrainer wires the retraining hook.
func NewTrainer(st *store.Store, weather TemperatureSource, fuelType fuelprice.FuelType) *Trainer {
	return &Trainer{
		store:    st,
		weather:  weather,
		fuelType: fuelType,
		horizon:  24 * time.Hour,
	}
}

type featurePayload struct {
	PriceEUR     *float64  `json:"price_eur"`
	TemperatureC *float64  `json:"temperature_c"`
	CapturedAt   time.Time `json:"captured_at"`
}

// Retrain labels matured feature vectors and records a new one. The actual
// model fit is still a placeholder.
func (t *Trainer) Retrain(ctx context.Context) error {
	now := time.Now().UTC()

	labeled, err := t.labelMatured(now)
	if err != nil {
		return err
	}

	if err := t.snapshot(ctx, now); err != nil {
		return err
	}

	log.Printf("train: labeled %d feature vectors; model fit pending implementation", labeled)
	return nil
}

// labelMatured backfills label prices for vectors whose target timestamp has
// passed, using the first price observed at or after that timestamp.
func (t *Trainer) labelMatured(now time.Time) (int, error) {
	fvs, err := t.store.UnlabeledFeatureVectors(now)
	if err != nil {
		return 0, err
	}

	labeled := 0
	for _, fv := range fvs {
		obs, err := t.store.FirstPriceAt(string(t.fuelType), fv.TargetTimestamp)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return labeled, err
		}
		if err := t.store.SetFeatureLabel(fv.ID, obs.PriceEUR); err != nil {
			return labeled, err
		}
		labeled++
	}
	return labeled, nil
}

// snapshot records one feature vector for now + horizon from the current
// price and forecast temperature.
func (t *Trainer) snapshot(ctx context.Context, now time.Time) error {
	var currentPrice *float64
	obs, err := t.store.LatestPriceForFuel(string(t.fuelType))
	switch {
	case errors.Is(err, store.ErrNotFound):
		// No prices captured yet; the vector still records the weather side.
	case err != nil:
		return err
	default:
		currentPrice = &obs.PriceEUR
	}

	temp, err := t.weather.GetLatestTemperature(ctx)
	if err != nil {
		return fmt.Errorf("train: latest temperature: %w", err)
	}

	payload, err := json.Marshal(featurePayload{
		PriceEUR:     currentPrice,
		TemperatureC: temp,
		CapturedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("train: marshal features: %w", err)
	}

	return t.store.InsertFeatureVector(&store.FeatureVector{
		TargetTimestamp: now.Add(t.horizon),
		FuelType:        string(t.fuelType),
		CurrentPrice:    currentPrice,
		FeaturesJSON:    string(payload),
		CreatedAt:       now,
	})
}
