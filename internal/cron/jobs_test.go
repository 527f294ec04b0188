package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
)

type fakeSessionExpirer struct {
	batchSize int
	expired   int
	err       error
}

func (f *fakeSessionExpirer) ExpireDue(ctx context.Context, batchSize int) (int, error) {
	f.batchSize = batchSize
	if f.err != nil {
		return 0, f.err
	}
	return f.expired, nil
}

func TestSessionSweepJob(t *testing.T) {
	expirer := &fakeSessionExpirer{expired: 3}
	job, err := NewSessionSweepJob(SessionSweepJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Sessions: expirer,
	})
	if err != nil {
		t.Fatalf("NewSessionSweepJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if expirer.batchSize != sessionSweepBatchSize {
		t.Fatalf("expected default batch size %d, got %d", sessionSweepBatchSize, expirer.batchSize)
	}
}

func TestSessionSweepJobPropagatesError(t *testing.T) {
	job, err := NewSessionSweepJob(SessionSweepJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Sessions: &fakeSessionExpirer{err: errors.New("db down")},
	})
	if err != nil {
		t.Fatalf("NewSessionSweepJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

type fakeOutboxRetentionRepo struct {
	lastCutoff time.Time
	called     int
	err        error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

func TestOutboxRetentionJobDeletesPublishedRows(t *testing.T) {
	now := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job := jobIface.(*outboxRetentionJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expectedCutoff := now.Add(-outboxRetentionDays * 24 * time.Hour)
	if !repo.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, repo.lastCutoff)
	}
	if repo.called != 1 {
		t.Fatalf("expected repo called once, got %d", repo.called)
	}
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	jobIface, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: &fakeOutboxRetentionRepo{err: errors.New("boom")},
	})
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	if err := jobIface.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
