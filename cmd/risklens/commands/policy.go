package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/risklens/internal/policy"
)

// policyCmd represents the policy command
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect scoring policies",
	Long: `Shows, validates and hashes scoring policy files.

Subcommands:
  show      - print a policy as YAML
  validate  - check a policy file
  hash      - print the policy hash stored with score snapshots

Example:
  go run ./cmd/risklens policy show > policy.yaml
  go run ./cmd/risklens policy validate policy.yaml
  go run ./cmd/risklens policy hash policy.yaml`,
}

var (
	policyShowCmd = &cobra.Command{
		Use:   "show [file]",
		Short: "Print a policy as YAML (default is the built-in policy)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPolicyShow,
	}

	policyValidateCmd = &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a policy file",
		Args:  cobra.ExactArgs(1),
		RunE:  runPolicyValidate,
	}

	policyHashCmd = &cobra.Command{
		Use:   "hash [file]",
		Short: "Print the policy hash",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPolicyHash,
	}
)

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policyValidateCmd)
	policyCmd.AddCommand(policyHashCmd)
}

func policyFromArgs(args []string) (*policy.Policy, error) {
	if len(args) == 0 {
		return policy.Default(), nil
	}
	return policy.Load(args[0])
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	p, err := policyFromArgs(args)
	if err != nil {
		return err
	}
	data, err := policy.MarshalYAML(p)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runPolicyValidate(cmd *cobra.Command, args []string) error {
	if _, err := policy.Load(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is valid\n", args[0])
	return nil
}

func runPolicyHash(cmd *cobra.Command, args []string) error {
	p, err := policyFromArgs(args)
	if err != nil {
		return err
	}
	hash, err := policy.Hash(p)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
