package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wonny/risklens/pkg/config"
	"github.com/wonny/risklens/pkg/logger"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "risklens",
	Short: "RiskLens - portfolio risk and behavior analytics",
	Long: `RiskLens CLI

Scores equity portfolios for concentration, sector, debt, valuation
and trading-behavior risk, and proposes rebalancing moves.

Usage:
  go run ./cmd/risklens [command]

Examples:
  go run ./cmd/risklens api
  go run ./cmd/risklens analyze --file portfolio.json
  go run ./cmd/risklens policy show
  go run ./cmd/risklens worker
  go run ./cmd/risklens migrate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load before the environment (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig loads the optional --config env file, then the environment
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// bootstrap loads config and creates the logger
func bootstrap() (*config.Config, *logger.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg), nil
}
