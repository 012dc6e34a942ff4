package providers

import (
	"context"
	"log"

	"github.com/MicBur/Fuel-prediction-API/internal/weather"
)

// DWDClient is a placeholder for the DWD station-keyed historical access.
// The integration is not implemented yet; every fetch answers empty.
type DWDClient struct {
	apiKey string
}

// NewDWDClient creates a DWDClient.
func NewDWDClient(apiKey string) *DWDClient {
	return &DWDClient{apiKey: apiKey}
}

// FetchHistorical always returns an empty sequence.
func (c *DWDClient) FetchHistorical(ctx context.Context, stationID string) ([]weather.HistoricalRecord, error) {
	log.Printf("dwd: historical fetch requested for station %s (not implemented yet)", stationID)
	return nil, nil
}
