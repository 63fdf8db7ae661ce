package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/pkg/logger"
)

// ScoreRecorder lists users and persists their current scores
type ScoreRecorder interface {
	Users(ctx context.Context) ([]string, error)
	RecordScores(ctx context.Context, userID string) (portfolio.ScoreSnapshot, error)
}

// ScoreSnapshotJob records risk and behavior scores for every user
type ScoreSnapshotJob struct {
	recorder ScoreRecorder
	schedule string
	logger   *logger.Logger
}

// NewScoreSnapshotJob creates a new score snapshot job
func NewScoreSnapshotJob(recorder ScoreRecorder, schedule string, log *logger.Logger) *ScoreSnapshotJob {
	return &ScoreSnapshotJob{
		recorder: recorder,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScoreSnapshotJob) Name() string {
	return "score-snapshot"
}

// Schedule returns the cron schedule
func (j *ScoreSnapshotJob) Schedule() string {
	return j.schedule
}

// Run snapshots every user. One user's failure does not stop the others;
// the run fails if any user failed.
func (j *ScoreSnapshotJob) Run(ctx context.Context) error {
	users, err := j.recorder.Users(ctx)
	if err != nil {
		return fmt.Errorf("score snapshot: %w", err)
	}

	recorded, skipped, failed := 0, 0, 0
	var firstErr error
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := j.recorder.RecordScores(ctx, user)
		switch {
		case err == nil:
			recorded++
		case errors.Is(err, portfolio.ErrNotFound):
			skipped++
		default:
			failed++
			if firstErr == nil {
				firstErr = err
			}
			j.logger.WithError(err).WithField("user_id", user).Warn("Failed to record scores")
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"recorded": recorded,
		"skipped":  skipped,
		"failed":   failed,
	}).Info("Score snapshot completed")

	if firstErr != nil {
		return fmt.Errorf("score snapshot: %d of %d users failed: %w", failed, len(users), firstErr)
	}
	return nil
}
