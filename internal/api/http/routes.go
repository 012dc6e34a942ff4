package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/MicBur/Fuel-prediction-API/internal/config"
	"github.com/MicBur/Fuel-prediction-API/internal/etl"
	"github.com/MicBur/Fuel-prediction-API/internal/fuelprice"
	"github.com/MicBur/Fuel-prediction-API/internal/store"
	"github.com/MicBur/Fuel-prediction-API/internal/weather"
)

var validate = validator.New()

// ETLRunner triggers one synchronization cycle.
type ETLRunner interface {
	RunAll(ctx context.Context) etl.Report
}

// BackfillRunner triggers a historical import over a trailing window.
type BackfillRunner interface {
	Backfill(ctx context.Context, days int) (int, error)
}

// Retrainer triggers the model retraining hook.
type Retrainer interface {
	Retrain(ctx context.Context) error
}

// ForecastSource exposes the live forecast for the predictions route.
type ForecastSource interface {
	GetForecast(ctx context.Context) ([]weather.Point, error)
}

// API bundles the collaborators the HTTP surface exposes.
type API struct {
	Pipeline   ETLRunner
	Backfiller BackfillRunner
	Trainer    Retrainer
	Store      *store.Store
	Weather    ForecastSource
	Config     *config.AppConfig
}

// RegisterRoutes wires the trigger and read handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, api API) {
	v1 := app.Group("/api/v1")

	// "Sync now": run one full ETL cycle and report per-step counts.
	v1.Post("/etl/sync", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Minute)
		defer cancel()

		rep := api.Pipeline.RunAll(ctx)
		if rep.Err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":      true,
				"failedStep": rep.FailedStep,
				"message":    rep.Err.Error(),
				"report":     rep,
			})
		}
		return c.JSON(rep)
	})

	// "Backfill N trailing days" of historical weather.
	v1.Post("/etl/backfill", func(c *fiber.Ctx) error {
		var req backfillQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Minute)
		defer cancel()

		inserted, err := api.Backfiller.Backfill(ctx, req.Days)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{
			"days":     req.Days,
			"inserted": inserted,
		})
	})

	// "Retrain now".
	v1.Post("/train/retrain", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Minute)
		defer cancel()

		if err := api.Trainer.Retrain(ctx); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Most recent price, per station or across all stations.
	v1.Get("/prices/latest", func(c *fiber.Ctx) error {
		var req latestPriceQuery
		if err := req.bind(c, api.Config.FuelType); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var (
			obs store.PriceObservation
			err error
		)
		if req.StationID != "" {
			obs, err = api.Store.LatestPrice(req.StationID, req.FuelType)
		} else {
			obs, err = api.Store.LatestPriceForFuel(req.FuelType)
		}
		if errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "no price observations for requested fuel type")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest price")
		}
		return c.JSON(obs)
	})

	// Weather series ordered by timestamp.
	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		obs, err := api.Store.WeatherRange(req.From, req.To)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}
		return c.JSON(fiber.Map{
			"from":         req.From,
			"to":           req.To,
			"observations": obs,
		})
	})

	// Placeholder predictions until the model is wired in: extrapolate the
	// latest observed price across the next 24 hours alongside the forecast
	// temperature.
	v1.Get("/predictions/next24h", func(c *fiber.Ctx) error {
		var currentPrice *float64
		obs, err := api.Store.LatestPriceForFuel(string(api.Config.FuelType))
		if err == nil {
			currentPrice = &obs.PriceEUR
		} else if !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch latest price")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 30*time.Second)
		defer cancel()

		forecast, err := api.Weather.GetForecast(ctx)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}

		interval := api.Config.PredictionInterval
		steps := int(24 * time.Hour / interval)
		start := time.Now().UTC()

		predictions := make([]prediction, 0, steps)
		for i := 0; i < steps; i++ {
			p := prediction{
				Timestamp:      start.Add(time.Duration(i) * interval),
				PredictedPrice: currentPrice,
				Notes:          "model pending; returning current price as placeholder",
			}
			if i < len(forecast) {
				p.TemperatureC = forecast[i].TemperatureC
			}
			predictions = append(predictions, p)
		}
		return c.JSON(predictions)
	})
}

type prediction struct {
	Timestamp      time.Time `json:"timestamp"`
	PredictedPrice *float64  `json:"predictedPrice"`
	TemperatureC   *float64  `json:"temperatureC"`
	Notes          string    `json:"notes"`
}

// backfillQuery holds the backfill trigger's parameters.
type backfillQuery struct {
	Days int `validate:"min=1,max=365"`
}

func (b *backfillQuery) bind(c *fiber.Ctx) error {
	b.Days = 30
	if v := c.Query("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return errors.New("days must be an integer")
		}
		b.Days = days
	}
	return validate.Struct(b)
}

// latestPriceQuery holds query parameters for the latest-price endpoint.
type latestPriceQuery struct {
	StationID string
	FuelType  string `validate:"oneof=diesel e5 e10"`
}

func (l *latestPriceQuery) bind(c *fiber.Ctx, def fuelprice.FuelType) error {
	l.StationID = c.Query("station_id")
	l.FuelType = c.Query("fuel_type", string(def))
	return validate.Struct(l)
}

// historyQuery holds query parameters for the weather-history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return validate.Struct(h)
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
