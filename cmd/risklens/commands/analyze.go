package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/risklens/internal/api/handlers"
	"github.com/wonny/risklens/internal/policy"
	"github.com/wonny/risklens/internal/portfolio"
	"github.com/wonny/risklens/pkg/logger"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a portfolio snapshot file",
	Long: `Runs the risk, behavior and simulation engines over a JSON snapshot
of the form {"holdings": [...], "history": [...]} and prints the result.
Nothing is stored.

Example:
  go run ./cmd/risklens analyze --file portfolio.json
  cat portfolio.json | go run ./cmd/risklens analyze --json`,
	RunE: runAnalyze,
}

var (
	analyzeFile   string
	analyzePolicy string
	analyzeJSON   bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "-", "snapshot file, - for stdin")
	analyzeCmd.Flags().StringVar(&analyzePolicy, "policy", "", "policy YAML (default is the built-in policy)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full analysis as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd.InOrStdin(), analyzeFile)
	if err != nil {
		return err
	}

	var req handlers.AnalyzeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}

	p, err := policy.LoadOrDefault(analyzePolicy)
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	service, err := portfolio.NewService(portfolio.NewMemoryStore(), p, logger.Nop())
	if err != nil {
		return err
	}
	analysis := service.Evaluate(req.Holdings, req.History)

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(analysis)
	}

	printAnalysis(out, analysis)
	return nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func printAnalysis(w io.Writer, a portfolio.Analysis) {
	r := a.Risk.Breakdown
	b := a.Behavior.Breakdown

	fprintHeader(w, "Risk")
	fprintKeyValue(w, "Score", fmt.Sprintf("%.1f (%s)", r.Composite, r.Level), 14)
	fprintKeyValue(w, "Concentration", fmt.Sprint(r.Concentration), 14)
	fprintKeyValue(w, "Sector", fmt.Sprint(r.Sector), 14)
	fprintKeyValue(w, "Debt", fmt.Sprint(r.Debt), 14)
	fprintKeyValue(w, "Valuation", fmt.Sprint(r.Valuation), 14)
	fprintKeyValue(w, "Behavioral", fmt.Sprint(r.Behavioral), 14)
	for _, in := range a.Risk.Insights {
		fmt.Fprintf(w, "   [%s] %s: %s\n", in.Severity, in.Title, in.Description)
	}

	fprintHeader(w, "Behavior")
	fprintKeyValue(w, "Score", fmt.Sprintf("%.1f (%s)", b.Composite, b.Level), 14)
	fprintKeyValue(w, "Overtrading", fmt.Sprint(b.Overtrading), 14)
	fprintKeyValue(w, "Short holding", fmt.Sprint(b.ShortHolding), 14)
	fprintKeyValue(w, "Loss selling", fmt.Sprint(b.LossSelling), 14)
	fprintKeyValue(w, "Timing", fmt.Sprint(b.TimingRisk), 14)
	for _, in := range a.Behavior.Insights {
		fmt.Fprintf(w, "   [%s] %s: %s\n", in.Severity, in.Title, in.Description)
	}

	fprintHeader(w, "Rebalancing")
	if len(a.Rebalancing) == 0 {
		fmt.Fprintln(w, "   No suggestions")
	}
	for i, s := range a.Rebalancing {
		fmt.Fprintf(w, "   %d. %s (%.1f, %+.1f)\n", i+1, s.Title, s.SimulatedScore, s.Delta)
	}

	suggestions := append(append([]string{}, a.Risk.Suggestions...), a.Behavior.Suggestions...)
	if len(suggestions) > 0 {
		fprintHeader(w, "Tips")
		for _, s := range suggestions {
			fmt.Fprintf(w, "   • %s\n", s)
		}
	}

	fmt.Fprintf(w, "\npolicy %s\n", strings.TrimSpace(a.PolicyHash))
}
