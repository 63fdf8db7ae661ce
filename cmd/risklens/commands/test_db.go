package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/risklens/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Test the PostgreSQL connection",
	Long: `Connects to DATABASE_URL, checks that the portfolio tables exist
and prints pool usage.

Example:
  go run ./cmd/risklens test-db
  go run ./cmd/risklens test-db --config .env.production`,
	RunE: runTestDB,
}

func init() {
	rootCmd.AddCommand(testDBCmd)
}

func runTestDB(cmd *cobra.Command, args []string) error {
	PrintDoubleSeparator()
	fmt.Println("  Database Connection Test")
	PrintDoubleSeparator()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	PrintKeyValue("Env", cfg.Env, 16)
	PrintKeyValue("Database URL", maskPassword(cfg.Database.URL), 16)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	PrintSuccess("Connection established")

	status, err := db.Status(ctx)
	if err != nil {
		return fmt.Errorf("status check failed: %w", err)
	}

	PrintSeparator()
	PrintKeyValue("Latency", status.Latency.String(), 16)
	PrintKeyValue("Max conns", fmt.Sprint(status.MaxConns), 16)
	PrintKeyValue("Total conns", fmt.Sprint(status.TotalConns), 16)
	PrintKeyValue("Idle conns", fmt.Sprint(status.IdleConns), 16)
	PrintKeyValue("Acquired conns", fmt.Sprint(status.AcquiredConns), 16)
	PrintSeparator()

	if !status.Ready() {
		PrintError(fmt.Sprintf("Missing tables: %s", strings.Join(status.MissingTables, ", ")))
		return fmt.Errorf("schema not migrated, run `risklens migrate`")
	}
	PrintSuccess("All checks passed")
	return nil
}

// maskPassword hides the password in a database URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
