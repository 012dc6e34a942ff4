package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/MicBur/Fuel-prediction-API/internal/fuelprice"
)

// AppConfig is the immutable process configuration. It is built once in
// Load and handed to each component at construction time; there is no
// ambient global lookup.
type AppConfig struct {
	// API credentials.
	TankerkoenigAPIKey string
	OpenWeatherAPIKey  string
	MeteostatAPIKey    string
	DWDAPIKey          string

	// The fixed point all ingestion is keyed to.
	Lat            float64
	Lng            float64
	SearchRadiusKM float64
	FuelType       fuelprice.FuelType

	SQLitePath string

	// Scheduling intervals.
	ETLInterval        time.Duration
	RetrainInterval    time.Duration
	PredictionInterval time.Duration

	HTTPTimeout time.Duration
	Port        string
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}

	cfg.TankerkoenigAPIKey = os.Getenv("TANKERKOENIG_API_KEY")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.MeteostatAPIKey = os.Getenv("METEOSTAT_API_KEY")
	cfg.DWDAPIKey = os.Getenv("DWD_API_KEY")

	// Location defaults to central Hamburg.
	cfg.Lat = getenvFloat("LOCATION_LAT", 53.5511)
	cfg.Lng = getenvFloat("LOCATION_LNG", 9.9937)
	cfg.SearchRadiusKM = getenvFloat("SEARCH_RADIUS_KM", 5.0)

	fuel := fuelprice.FuelType(getenvDefault("FUEL_TYPE", "e5"))
	if !fuel.Valid() {
		return nil, fmt.Errorf("invalid FUEL_TYPE %q: must be diesel, e5 or e10", fuel)
	}
	cfg.FuelType = fuel

	cfg.SQLitePath = getenvDefault("SQLITE_PATH", "data/benzin.db")

	var err error
	if cfg.ETLInterval, err = getenvDuration("ETL_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	if cfg.RetrainInterval, err = getenvDuration("RETRAIN_INTERVAL", "24h"); err != nil {
		return nil, err
	}
	if cfg.PredictionInterval, err = getenvDuration("PREDICTION_INTERVAL", "5m"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8000")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	v := getenvDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
