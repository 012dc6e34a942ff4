package store

import "time"

// Station is a fuel-retail location with a stable provider-assigned id.
// Rows are idempotently upserted by the station-sync step and never deleted.
type Station struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Brand       string
	Lat         float64
	Lng         float64
	Street      string
	HouseNumber string
	PostCode    int
}

// PriceObservation is one append-only time-series point for a station and
// fuel grade. The station reference is an explicit foreign key column; there
// is no object-graph navigation.
type PriceObservation struct {
	ID         uint   `gorm:"primaryKey"`
	StationID  string `gorm:"index;not null"`
	FuelType   string `gorm:"index"`
	PriceEUR   float64
	CapturedAt time.Time `gorm:"index"`
}

// WeatherObservation is one timestamped weather measurement. All fields
// except the timestamp are optional; nil means the source could not supply
// the value. No two rows should share a capture timestamp - both producers
// check before inserting.
type WeatherObservation struct {
	ID              uint      `gorm:"primaryKey"`
	CapturedAt      time.Time `gorm:"index"`
	TemperatureC    *float64
	HumidityPct     *float64
	WindSpeedMS     *float64
	PrecipitationMM *float64
	CloudCoverPct   *float64
}

// FeatureVector is the contract with the training component: a derived
// feature payload for a target timestamp, labeled retrospectively with the
// price actually observed there.
type FeatureVector struct {
	ID              uint      `gorm:"primaryKey"`
	TargetTimestamp time.Time `gorm:"index"`
	FuelType        string
	CurrentPrice    *float64
	FeaturesJSON    string
	LabelPrice      *float64
	CreatedAt       time.Time
}
