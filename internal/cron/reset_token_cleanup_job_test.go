package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/oakmart/storefront-backend/pkg/db/models"
	"github.com/oakmart/storefront-backend/pkg/logger"
)

type fakeResetTokenRepo struct {
	users      []models.User
	listErr    error
	clearErrs  map[uuid.UUID]error
	clearedIDs []uuid.UUID
}

func (f *fakeResetTokenRepo) ListExpiredResetTokens(_ context.Context, _ time.Time) ([]models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.users, nil
}

func (f *fakeResetTokenRepo) ClearResetToken(_ context.Context, id uuid.UUID) error {
	if err, ok := f.clearErrs[id]; ok {
		return err
	}
	f.clearedIDs = append(f.clearedIDs, id)
	return nil
}

func newResetTokenJob(t *testing.T, repo *fakeResetTokenRepo) Job {
	t.Helper()
	job, err := NewResetTokenCleanupJob(ResetTokenCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "test"}),
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("NewResetTokenCleanupJob: %v", err)
	}
	return job
}

func TestResetTokenCleanupClearsAllExpiredRows(t *testing.T) {
	repo := &fakeResetTokenRepo{
		users: []models.User{{ID: uuid.New()}, {ID: uuid.New()}, {ID: uuid.New()}},
	}
	job := newResetTokenJob(t, repo)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.clearedIDs) != 3 {
		t.Fatalf("expected 3 cleared tokens, got %d", len(repo.clearedIDs))
	}
}

func TestResetTokenCleanupContinuesPastRowFailures(t *testing.T) {
	bad := uuid.New()
	good := uuid.New()
	repo := &fakeResetTokenRepo{
		users:     []models.User{{ID: bad}, {ID: good}},
		clearErrs: map[uuid.UUID]error{bad: errors.New("row locked")},
	}
	job := newResetTokenJob(t, repo)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(repo.clearedIDs) != 1 || repo.clearedIDs[0] != good {
		t.Fatalf("expected the remaining row to be cleared, got %v", repo.clearedIDs)
	}
}

func TestResetTokenCleanupStopsOnListFailure(t *testing.T) {
	repo := &fakeResetTokenRepo{listErr: errors.New("db down")}
	job := newResetTokenJob(t, repo)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
