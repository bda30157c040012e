package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/gestao-municipal/gestao/internal/jobs"
	"github.com/gestao-municipal/gestao/internal/notifications"
)

// Scanner runs one expiry scan.
type Scanner interface {
	Scan(ctx context.Context) (notifications.Result, error)
}

// ExpiryScanJob wraps the notification scanner as an Asynq handler.
type ExpiryScanJob struct {
	Scanner Scanner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewExpiryScanJob initialises the scan handler.
func NewExpiryScanJob(scanner Scanner, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExpiryScanJob {
	return &ExpiryScanJob{Scanner: scanner, Logger: logger, Metrics: metrics}
}

// Handle executes the scan.
func (j *ExpiryScanJob) Handle(ctx context.Context, _ *asynq.Task) (resultErr error) {
	if j == nil || j.Scanner == nil {
		return errors.New("expiry scan: handler not configured")
	}
	start := time.Now()
	tracker := j.metrics().Track(TaskExpiryScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting expiry scan")
	res, err := j.Scanner.Scan(ctx)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}
	j.metrics().AddAlerts(notifications.DocumentContract, len(res.Alerts))
	logger.Info("completed expiry scan",
		slog.String("day", res.Day.ISO()),
		slog.Int("evaluated", res.Evaluated),
		slog.Int("alerts", len(res.Alerts)),
		slog.Int("skipped", res.Skipped),
		slog.Int("messages", res.Messages),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *ExpiryScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskExpiryScan))
	}
	return slog.Default().With(slog.String("job", TaskExpiryScan))
}

func (j *ExpiryScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
