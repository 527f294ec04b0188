package cron

import (
	"context"
	"fmt"

	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
)

const sessionSweepBatchSize = 500

type sessionExpirer interface {
	ExpireDue(ctx context.Context, batchSize int) (int, error)
}

// SessionSweepJobParams configure the pending session sweeper.
type SessionSweepJobParams struct {
	Logger    *logger.Logger
	Sessions  sessionExpirer
	BatchSize int
}

// NewSessionSweepJob builds the job that expires lapsed pending sessions.
// Expiry is also applied lazily on read; the sweep keeps the table and the
// event stream from trailing reality by more than one interval.
func NewSessionSweepJob(params SessionSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = sessionSweepBatchSize
	}
	return &sessionSweepJob{
		logg:      params.Logger,
		sessions:  params.Sessions,
		batchSize: batchSize,
	}, nil
}

type sessionSweepJob struct {
	logg      *logger.Logger
	sessions  sessionExpirer
	batchSize int
}

func (j *sessionSweepJob) Name() string { return "session-sweep" }

func (j *sessionSweepJob) Run(ctx context.Context) error {
	expired, err := j.sessions.ExpireDue(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("session sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired":    expired,
		"batch_size": j.batchSize,
	})
	j.logg.Info(logCtx, "session sweep complete")
	return nil
}
