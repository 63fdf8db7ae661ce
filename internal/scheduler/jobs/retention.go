package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/risklens/pkg/logger"
)

// HistoryPruner deletes history entries older than a retention period
type HistoryPruner interface {
	PruneHistory(ctx context.Context, retention time.Duration) (int64, error)
}

// HistoryRetentionJob prunes transaction history past the retention period
type HistoryRetentionJob struct {
	pruner    HistoryPruner
	retention time.Duration
	schedule  string
	logger    *logger.Logger
}

// NewHistoryRetentionJob creates a new history retention job
func NewHistoryRetentionJob(pruner HistoryPruner, retention time.Duration, schedule string, log *logger.Logger) *HistoryRetentionJob {
	return &HistoryRetentionJob{
		pruner:    pruner,
		retention: retention,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *HistoryRetentionJob) Name() string {
	return "history-retention"
}

// Schedule returns the cron schedule
func (j *HistoryRetentionJob) Schedule() string {
	return j.schedule
}

// Run prunes old history
func (j *HistoryRetentionJob) Run(ctx context.Context) error {
	pruned, err := j.pruner.PruneHistory(ctx, j.retention)
	if err != nil {
		return fmt.Errorf("history retention: %w", err)
	}

	if pruned > 0 {
		j.logger.WithFields(map[string]interface{}{
			"pruned":         pruned,
			"retention_days": int(j.retention.Hours() / 24),
		}).Info("History retention completed")
	}
	return nil
}
