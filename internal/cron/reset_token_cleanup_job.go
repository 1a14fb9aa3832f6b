package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/oakmart/storefront-backend/pkg/db/models"
	"github.com/oakmart/storefront-backend/pkg/logger"
)

type ResetTokenCleanupJobParams struct {
	Logger     *logger.Logger
	Repository resetTokenRepo
}

type resetTokenRepo interface {
	ListExpiredResetTokens(ctx context.Context, now time.Time) ([]models.User, error)
	ClearResetToken(ctx context.Context, id uuid.UUID) error
}

// NewResetTokenCleanupJob clears password reset tokens that outlived their
// expiry. Rows are cleared one by one so a single bad row cannot abort the
// whole sweep; per-row failures are aggregated into the job result.
func NewResetTokenCleanupJob(params ResetTokenCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &resetTokenCleanupJob{
		logg: params.Logger,
		repo: params.Repository,
		now:  time.Now,
	}, nil
}

type resetTokenCleanupJob struct {
	logg *logger.Logger
	repo resetTokenRepo
	now  func() time.Time
}

func (j *resetTokenCleanupJob) Name() string { return "reset-token-cleanup" }

func (j *resetTokenCleanupJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.repo.ListExpiredResetTokens(ctx, now)
	if err != nil {
		return fmt.Errorf("query expired reset tokens: %w", err)
	}

	var errs error
	cleared := 0
	for _, user := range expired {
		if err := j.repo.ClearResetToken(ctx, user.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("clear token for %s: %w", user.ID, err))
			continue
		}
		cleared++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates": len(expired),
		"cleared":    cleared,
	})
	j.logg.Info(logCtx, "reset token cleanup complete")
	return errs
}
