package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/internal/scheduler"
	"github.com/wonny/risklens/internal/scheduler/jobs"
	"github.com/wonny/risklens/pkg/config"
	"github.com/wonny/risklens/pkg/logger"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run background jobs",
	Long: `Runs the cron scheduler with the background jobs:

  history-retention  prunes history older than HISTORY_RETENTION_DAYS (RETENTION_SCHEDULE)
  score-snapshot     records risk and behavior scores per user (SNAPSHOT_SCHEDULE)

With --run-once the jobs run immediately and the command exits.

Example:
  go run ./cmd/risklens worker
  go run ./cmd/risklens worker --run-once
  go run ./cmd/risklens worker --run-once --job score-snapshot`,
	RunE: runWorker,
}

var (
	workerRunOnce bool
	workerJob     string
)

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().BoolVar(&workerRunOnce, "run-once", false, "run jobs now and exit")
	workerCmd.Flags().StringVar(&workerJob, "job", "", "with --run-once, run only this job")
}

// newScheduler registers the background jobs on a fresh scheduler
func newScheduler(cfg *config.Config, service *portfolio.Service, log *logger.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log)

	jobList := []scheduler.Job{
		jobs.NewHistoryRetentionJob(service, cfg.HistoryRetention(), cfg.Jobs.RetentionSchedule, log),
		jobs.NewScoreSnapshotJob(service, cfg.Jobs.SnapshotSchedule, log),
	}
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	service, err := portfolio.NewService(rt.store, rt.policy, log)
	if err != nil {
		return fmt.Errorf("create portfolio service: %w", err)
	}

	sched, err := newScheduler(cfg, service, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if workerRunOnce {
		return runJobsOnce(ctx, sched)
	}

	sched.Start()

	PrintSuccess("Scheduler started")
	widths := []int{20, 16, 20}
	PrintTableHeader([]string{"JOB", "SCHEDULE", "NEXT RUN"}, widths)
	stats := sched.Stats()
	for _, name := range sched.Jobs() {
		next := "-"
		if st := stats[name]; st.NextRun != nil {
			next = st.NextRun.Format(time.DateTime)
		}
		PrintTableRow([]string{name, stats[name].Schedule, next}, widths)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()
	sched.Stop()
	return nil
}

func runJobsOnce(ctx context.Context, sched *scheduler.Scheduler) error {
	names := sched.Jobs()
	if workerJob != "" {
		names = []string{workerJob}
	}

	failed := 0
	for _, name := range names {
		result, err := sched.RunJob(ctx, name)
		if err != nil {
			return err
		}
		if result.Success {
			PrintSuccess(fmt.Sprintf("%s completed in %s", name, result.Duration.Round(time.Millisecond)))
		} else {
			failed++
			PrintError(fmt.Sprintf("%s failed after %d attempts: %s", name, result.Attempts, result.Error))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(names))
	}
	return nil
}
