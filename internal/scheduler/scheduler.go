package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/MicBur/Fuel-prediction-API/internal/etl"
	"github.com/MicBur/Fuel-prediction-API/internal/train"
)

// Scheduler periodically triggers the ETL cycle and the retraining hook on
// independent intervals. Jobs run in singleton mode so a slow cycle is never
// overlapped by the next tick. Backfill is deliberately not scheduled; it is
// a manual trigger only.
type Scheduler struct {
	scheduler *gocron.Scheduler
	pipeline  *etl.Pipeline
	trainer   *train.Trainer

	etlInterval     time.Duration
	retrainInterval time.Duration
}

// New creates a Scheduler.
func New(pipeline *etl.Pipeline, trainer *train.Trainer, etlInterval, retrainInterval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler:       gocron.NewScheduler(time.UTC),
		pipeline:        pipeline,
		trainer:         trainer,
		etlInterval:     etlInterval,
		retrainInterval: retrainInterval,
	}
}

// Start registers both jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.etlInterval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		rep := s.pipeline.RunAll(ctx)
		if rep.Err != nil {
			log.Printf("scheduler: etl cycle failed at %s: %v", rep.FailedStep, rep.Err)
			return
		}
		log.Printf("scheduler: etl cycle done: %d stations, %d prices, %d weather points",
			rep.StationsSynced, rep.PricesCaptured, rep.WeatherPointsStored)
	})
	if err != nil {
		return err
	}

	_, err = s.scheduler.Every(s.retrainInterval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := s.trainer.Retrain(ctx); err != nil {
			log.Printf("scheduler: retrain failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
