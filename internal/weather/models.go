package weather

import "time"

// Point is one normalized forecast observation. The timestamp is the time
// axis key; every other field may be absent when a source could not supply
// it. Absence is always a nil pointer, never a zero or sentinel value.
type Point struct {
	Timestamp       time.Time `json:"timestamp"` // always UTC
	TemperatureC    *float64  `json:"temperatureC"`
	HumidityPct     *float64  `json:"humidityPct"`
	WindSpeedMS     *float64  `json:"windSpeedMs"`
	PrecipitationMM *float64  `json:"precipitationMm"`
	CloudCoverPct   *float64  `json:"cloudCoverPct"`
}

// ArchiveRecord is one hourly row from the historical archive dataset, still
// in the archive's native units: wind speed in km/h and a 0-9 ordinal
// condition code instead of a cloud-cover percentage.
type ArchiveRecord struct {
	Timestamp       time.Time
	TemperatureC    *float64
	HumidityPct     *float64
	WindSpeedKMH    *float64
	PrecipitationMM *float64
	ConditionCode   *float64
}

// HistoricalRecord is a per-station historical observation from the national
// weather service. The station-keyed integration is not implemented yet.
type HistoricalRecord struct {
	Timestamp    time.Time
	TemperatureC *float64
	HumidityPct  *float64
	WindSpeedMS  *float64
	PressureHpa  *float64
}
