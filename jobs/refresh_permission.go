package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-auth/internal/jobs"
	"github.com/odyssey-erp/odyssey-auth/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Refresher recomputes and stores the permission mask of a user.
type Refresher interface {
	RefreshPermission(ctx context.Context, userID int32) (uint64, error)
}

// RefreshPermissionJob runs TaskRefreshPermission tasks.
type RefreshPermissionJob struct {
	Refresher Refresher
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewRefreshPermissionJob constructs the job handler.
func NewRefreshPermissionJob(refresher Refresher, logger *slog.Logger, metrics *jobmetrics.Metrics) *RefreshPermissionJob {
	return &RefreshPermissionJob{Refresher: refresher, Logger: logger, Metrics: metrics}
}

// Handle executes one refresh. Unknown users and users without a cached
// session are not retried; everything else is.
func (j *RefreshPermissionJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.Refresher == nil {
		return errors.New("refresh permission: dependencies not configured")
	}
	tracker := j.metrics().Track(TaskRefreshPermission)
	defer func() {
		err = tracker.End(err)
	}()

	payload, err := decodeRefreshPayload(task)
	if err != nil {
		j.log().Warn("bad payload", slog.Any("error", err))
		return err
	}
	mask, err := j.Refresher.RefreshPermission(ctx, payload.UserID)
	switch {
	case err == nil:
		j.log().Info("permission refreshed", slog.Int("user_id", int(payload.UserID)), slog.Uint64("auth", mask))
		return nil
	case errors.Is(err, shared.ErrUserNotExist), errors.Is(err, shared.ErrSessionNotFound):
		j.log().Info("refresh skipped", slog.Int("user_id", int(payload.UserID)), slog.Any("reason", err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	default:
		j.log().Error("refresh failed", slog.Int("user_id", int(payload.UserID)), slog.Any("error", err))
		return err
	}
}

func (j *RefreshPermissionJob) metrics() *jobmetrics.Metrics {
	if j != nil && j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *RefreshPermissionJob) log() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskRefreshPermission))
	}
	return slog.Default().With(slog.String("job", TaskRefreshPermission))
}
