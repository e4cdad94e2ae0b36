package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-escalation/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "escalationctl",
		Short: "Operator tooling for the SLA and escalation engine",
		Long: `escalationctl runs manual escalation sweeps and lints escalation rule
files against the same validation the service applies.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.SweepCmd())
	rootCmd.AddCommand(cli.ValidateRulesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
