package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/wonny/risklens/internal/api"
	"github.com/wonny/risklens/internal/api/handlers"
	"github.com/wonny/risklens/internal/api/stream"
	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET    /health
  GET    /metrics
  POST   /api/analyze
  GET    /api/portfolios/{userID}/holdings
  POST   /api/portfolios/{userID}/holdings
  DELETE /api/portfolios/{userID}/holdings/{holdingID}
  POST   /api/portfolios/{userID}/prices
  GET    /api/portfolios/{userID}/summary
  GET    /api/portfolios/{userID}/risk
  GET    /api/portfolios/{userID}/behavior
  GET    /api/portfolios/{userID}/suggestions
  POST   /api/portfolios/{userID}/simulate
  GET    /api/portfolios/{userID}/history
  GET    /api/portfolios/{userID}/scores
  GET    /api/portfolios/{userID}/stream   (websocket)

Example:
  go run ./cmd/risklens api
  go run ./cmd/risklens api --port 9090
  go run ./cmd/risklens api --with-jobs`,
	RunE: runAPIServer,
}

var (
	apiPort     string
	apiWithJobs bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
	apiCmd.Flags().BoolVar(&apiWithJobs, "with-jobs", false, "also run the background jobs in this process")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port":  cfg.Port,
		"env":   cfg.Env,
		"store": cfg.Store,
	}).Info("Initializing API server")

	rt, err := newRuntime(cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	hub := stream.NewHub(log)

	service, err := portfolio.NewService(rt.store, rt.policy, log, portfolio.WithNotifier(hub))
	if err != nil {
		return fmt.Errorf("create portfolio service: %w", err)
	}

	deps := api.RouterDeps{
		Portfolio:      handlers.NewPortfolioHandler(service, hub, log),
		Analyze:        handlers.NewAnalyzeHandler(service, log),
		Health:         handlers.NewHealthHandler(rt.healthChecks()),
		Limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
		MetricsEnabled: cfg.MetricsEnabled,
		Logger:         log,
	}
	if rt.redis.Enabled() {
		deps.WriteLimiter = redis.NewRateLimiter(rt.redis, "risklens")
		deps.WritesPerMinute = cfg.RateLimit.WritesPerMin
	}

	server := api.NewServer(":"+cfg.Port, api.NewRouter(deps), log)
	server.Go("stream-hub", hub.Run)

	if apiWithJobs {
		sched, err := newScheduler(cfg, service, log)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		server.Go("scheduler", func(ctx context.Context) {
			sched.Start()
			<-ctx.Done()
			sched.Stop()
		})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.WithField("policy_hash", service.PolicyHash()).Info("API server started")
	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s", cfg.Port))
	fmt.Println("\nPress Ctrl+C to stop")

	if err := server.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}
