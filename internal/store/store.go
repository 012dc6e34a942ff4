package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Store is the durable sqlite-backed persistence layer. The ETL pipeline and
// the backfill job are the only writers; the API and the training component
// read through it only.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Station{}, &PriceObservation{}, &WeatherObservation{}, &FeatureVector{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// UpsertStations inserts or fully overwrites the given stations keyed by id.
// Absent fields from the source overwrite existing values; this is a full
// upsert, not a merge.
func (s *Store) UpsertStations(stations []Station) error {
	if len(stations) == 0 {
		return nil
	}
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&stations).Error
	if err != nil {
		return fmt.Errorf("store: upsert stations: %w", err)
	}
	return nil
}

// StationIDs returns all known station ids in a stable order.
func (s *Store) StationIDs() ([]string, error) {
	var ids []string
	if err := s.db.Model(&Station{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("store: list station ids: %w", err)
	}
	return ids, nil
}

// CountStations returns the number of station rows.
func (s *Store) CountStations() (int64, error) {
	var n int64
	if err := s.db.Model(&Station{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count stations: %w", err)
	}
	return n, nil
}

// GetStation returns one station by id.
func (s *Store) GetStation(id string) (Station, error) {
	var st Station
	err := s.db.First(&st, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Station{}, ErrNotFound
	}
	if err != nil {
		return Station{}, fmt.Errorf("store: get station %s: %w", id, err)
	}
	return st, nil
}

// InsertPriceObservations appends the given price observations.
func (s *Store) InsertPriceObservations(obs []PriceObservation) error {
	if len(obs) == 0 {
		return nil
	}
	if err := s.db.Create(&obs).Error; err != nil {
		return fmt.Errorf("store: insert price observations: %w", err)
	}
	return nil
}

// CountPriceObservations returns the number of price observation rows.
func (s *Store) CountPriceObservations() (int64, error) {
	var n int64
	if err := s.db.Model(&PriceObservation{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count price observations: %w", err)
	}
	return n, nil
}

// LatestPrice returns the most recent observation for one station and fuel
// grade.
func (s *Store) LatestPrice(stationID, fuelType string) (PriceObservation, error) {
	var obs PriceObservation
	err := s.db.Where("station_id = ? AND fuel_type = ?", stationID, fuelType).
		Order("captured_at DESC").First(&obs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PriceObservation{}, ErrNotFound
	}
	if err != nil {
		return PriceObservation{}, fmt.Errorf("store: latest price for %s: %w", stationID, err)
	}
	return obs, nil
}

// LatestPriceForFuel returns the most recent observation for a fuel grade
// across all stations.
func (s *Store) LatestPriceForFuel(fuelType string) (PriceObservation, error) {
	var obs PriceObservation
	err := s.db.Where("fuel_type = ?", fuelType).
		Order("captured_at DESC").First(&obs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PriceObservation{}, ErrNotFound
	}
	if err != nil {
		return PriceObservation{}, fmt.Errorf("store: latest price for fuel %s: %w", fuelType, err)
	}
	return obs, nil
}

// FirstPriceAt returns the earliest observation for a fuel grade captured at
// or after ts. Used to label feature vectors retrospectively.
func (s *Store) FirstPriceAt(fuelType string, ts time.Time) (PriceObservation, error) {
	var obs PriceObservation
	err := s.db.Where("fuel_type = ? AND captured_at >= ?", fuelType, ts).
		Order("captured_at ASC").First(&obs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PriceObservation{}, ErrNotFound
	}
	if err != nil {
		return PriceObservation{}, fmt.Errorf("store: first price at %s: %w", ts, err)
	}
	return obs, nil
}

// PriceHistory returns a station's observations for one fuel grade between
// from and to inclusive, ordered by capture time.
func (s *Store) PriceHistory(stationID, fuelType string, from, to time.Time) ([]PriceObservation, error) {
	var obs []PriceObservation
	err := s.db.Where("station_id = ? AND fuel_type = ? AND captured_at BETWEEN ? AND ?",
		stationID, fuelType, from, to).
		Order("captured_at ASC").Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("store: price history for %s: %w", stationID, err)
	}
	return obs, nil
}

// InsertWeatherObservations appends the given weather observations.
func (s *Store) InsertWeatherObservations(obs []WeatherObservation) error {
	if len(obs) == 0 {
		return nil
	}
	if err := s.db.Create(&obs).Error; err != nil {
		return fmt.Errorf("store: insert weather observations: %w", err)
	}
	return nil
}

// WeatherExistsAt reports whether an observation with exactly this capture
// timestamp exists. Both producers use this to keep the series free of
// duplicate timestamps.
func (s *Store) WeatherExistsAt(ts time.Time) (bool, error) {
	var n int64
	err := s.db.Model(&WeatherObservation{}).Where("captured_at = ?", ts).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("store: weather exists at %s: %w", ts, err)
	}
	return n > 0, nil
}

// CountWeatherObservations returns the number of weather observation rows.
func (s *Store) CountWeatherObservations() (int64, error) {
	var n int64
	if err := s.db.Model(&WeatherObservation{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("store: count weather observations: %w", err)
	}
	return n, nil
}

// WeatherRange returns weather observations between from and to inclusive,
// ordered by capture time.
func (s *Store) WeatherRange(from, to time.Time) ([]WeatherObservation, error) {
	var obs []WeatherObservation
	err := s.db.Where("captured_at BETWEEN ? AND ?", from, to).
		Order("captured_at ASC").Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("store: weather range: %w", err)
	}
	return obs, nil
}

// InsertFeatureVector appends one feature vector row.
func (s *Store) InsertFeatureVector(fv *FeatureVector) error {
	if err := s.db.Create(fv).Error; err != nil {
		return fmt.Errorf("store: insert feature vector: %w", err)
	}
	return nil
}

// UnlabeledFeatureVectors returns feature vectors whose target timestamp has
// passed but which have no label price yet.
func (s *Store) UnlabeledFeatureVectors(before time.Time) ([]FeatureVector, error) {
	var fvs []FeatureVector
	err := s.db.Where("label_price IS NULL AND target_timestamp <= ?", before).
		Order("target_timestamp ASC").Find(&fvs).Error
	if err != nil {
		return nil, fmt.Errorf("store: unlabeled feature vectors: %w", err)
	}
	return fvs, nil
}

// SetFeatureLabel fills in the retrospective label price for one feature
// vector.
func (s *Store) SetFeatureLabel(id uint, price float64) error {
	err := s.db.Model(&FeatureVector{}).Where("id = ?", id).Update("label_price", price).Error
	if err != nil {
		return fmt.Errorf("store: label feature vector %d: %w", id, err)
	}
	return nil
}
