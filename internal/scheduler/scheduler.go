package scheduler

import (
	"context"
	"fmt"
	"jsonweblog/config"
	"jsonweblog/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
)

// NewCron builds a cron with a seconds field, e.g. "*/30 * * * * *".
func NewCron() *cron.Cron {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.DowOptional | cron.Descriptor)
	return cron.New(cron.WithParser(parser))
}

// AddStatsJob schedules the periodic stats log line.
func AddStatsJob(c *cron.Cron, schedule string, statsSvc service.StatsService) error {
	if _, err := c.AddFunc(schedule, statsSvc.LogStats); err != nil {
		return fmt.Errorf("add stats job %q: %w", schedule, err)
	}
	return nil
}

func NewScheduler(lc fx.Lifecycle, cfg *config.Config, statsSvc service.StatsService) (*cron.Cron, error) {
	c := NewCron()

	schedule := cfg.Scheduler.StatsSchedule
	if schedule == "" {
		log.Info().Msg("Stats schedule empty, periodic stats disabled")
		return c, nil
	}
	if err := AddStatsJob(c, schedule, statsSvc); err != nil {
		return nil, err
	}
	log.Info().Str("schedule", schedule).Msg("Scheduled stats job")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msg("Starting cron scheduler")
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Stopping cron scheduler...")
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
				log.Info().Msg("Cron scheduler stopped gracefully.")
				return nil
			case <-ctx.Done():
				log.Error().Msg("Context cancelled while waiting for cron scheduler to stop.")
				return ctx.Err()
			}
		},
	})

	return c, nil
}
