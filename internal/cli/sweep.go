package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-escalation/internal/api/dto"
	"github.com/spec-kit/ticket-escalation/internal/bootstrap"
	"github.com/spec-kit/ticket-escalation/internal/config"
	"github.com/spec-kit/ticket-escalation/internal/escalation"
	"github.com/spec-kit/ticket-escalation/internal/observability"
)

// SweepCmd returns the sweep command.
func SweepCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one manual escalation sweep",
		Long: `Evaluate every open ticket against the active escalation rules once,
using the store, lock and sink configured in the environment.

Examples:
  escalationctl sweep
  escalationctl sweep --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(cfg.Logger)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := bootstrap.Build(ctx, cfg, logger.WithOptions(zap.IncreaseLevel(zap.WarnLevel)))
			if err != nil {
				return err
			}
			defer rt.Close()

			report, err := rt.Service.CheckNow(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			displayReport(cmd.OutOrStdout(), report)
			if len(report.Errors) > 0 {
				return fmt.Errorf("%d ticket(s) failed", len(report.Errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw report as JSON")
	return cmd
}

func writeJSON(w io.Writer, report escalation.SweepReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.SweepReport(report))
}

func displayReport(w io.Writer, report escalation.SweepReport) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Fprintf(w, "Sweep %s (%s)\n", report.SweepID, report.Trigger)
	fmt.Fprintf(w, "  evaluated: %d\n", report.Evaluated)
	green.Fprintf(w, "  escalated: %d\n", report.Escalated)
	if report.Skipped > 0 {
		yellow.Fprintf(w, "  skipped:   %d\n", report.Skipped)
	}
	if report.Unassigned > 0 {
		yellow.Fprintf(w, "  unassigned: %d\n", report.Unassigned)
	}
	if len(report.InvalidRules) > 0 {
		yellow.Fprintf(w, "  invalid rules ignored: %v\n", report.InvalidRules)
	}
	if report.Cancelled {
		yellow.Fprintln(w, "  cancelled before all tickets were evaluated")
	}

	if len(report.Transitions) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TICKET\tLEVEL\tTARGET\tREASON")
		for _, h := range report.Transitions {
			fmt.Fprintf(tw, "%d\t%d -> %d\t%s\t%s\n", h.TicketID, h.FromLevel, h.ToLevel, target(h.EscalatedToUserID, h.EscalatedToRole), h.Reason)
		}
		_ = tw.Flush()
	}

	for _, e := range report.Errors {
		red.Fprintf(w, "  ticket %d: %s %s\n", e.TicketID, e.Code, e.Error)
	}
}

func target(userID *int64, role *string) string {
	switch {
	case userID != nil && role != nil:
		return fmt.Sprintf("user %d (%s)", *userID, *role)
	case userID != nil:
		return fmt.Sprintf("user %d", *userID)
	case role != nil:
		return "role " + *role
	default:
		return "unassigned"
	}
}
