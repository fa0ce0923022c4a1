package batch

import (
	"context"
	"log/slog"
	"time"

	"origination-engine/internal/rates"
)

// RatesRefreshJob pulls a fresh rate sheet on the configured cron schedule.
// A failed run leaves the previous sheet serving and is retried on the next
// tick.
type RatesRefreshJob struct {
	rates  rates.RatesService
	logger *slog.Logger
}

func NewRatesRefreshJob(ratesSvc rates.RatesService, logger *slog.Logger) *RatesRefreshJob {
	if ratesSvc == nil || logger == nil {
		panic("RatesRefreshJob dependencies cannot be nil")
	}
	return &RatesRefreshJob{
		rates:  ratesSvc,
		logger: logger.With("job", "RatesRefresh"),
	}
}

func (j *RatesRefreshJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting scheduled rate sheet refresh.")

	if err := j.rates.Refresh(ctx); err != nil {
		j.logger.ErrorContext(ctx, "Rate sheet refresh failed; previous sheet remains in service.",
			slog.Any("error", err), slog.Duration("duration", time.Since(startTime)))
		return err
	}

	j.logger.InfoContext(ctx, "Rate sheet refresh finished.", slog.Duration("duration", time.Since(startTime)))
	return nil
}
