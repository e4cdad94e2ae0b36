package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-escalation/internal/domain"
	"github.com/spec-kit/ticket-escalation/internal/escalation"
	"github.com/spec-kit/ticket-escalation/internal/fixtures"
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

// ValidateRulesCmd returns the validate-rules command.
func ValidateRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-rules FILE",
		Short: "Check escalation rules in a YAML file",
		Long: `Load the escalation_rules section of a YAML fixture and report every
rule that is missing a field required by its trigger or target type.

Examples:
  escalationctl validate-rules rules.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixtures.Load(args[0])
			if err != nil {
				return err
			}
			if invalid := reportRules(cmd.OutOrStdout(), f.Rules()); invalid > 0 {
				return fmt.Errorf("%d invalid rule(s)", invalid)
			}
			return nil
		},
	}
}

func reportRules(w io.Writer, rules []domain.EscalationRule) int {
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	invalid := 0
	for _, rule := range rules {
		err := escalation.ValidateRule(rule)
		if err == nil {
			ok.Fprintf(w, "ok    rule %d %q\n", rule.ID, rule.Name)
			continue
		}
		invalid++
		bad.Fprintf(w, "FAIL  rule %d %q\n", rule.ID, rule.Name)
		for _, line := range fieldErrors(err) {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
	return invalid
}

func fieldErrors(err error) []string {
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		return []string{err.Error()}
	}
	fields, _ := domainErr.Details["fields"].(map[string]string)
	lines := make([]string, 0, len(fields))
	for name, msg := range fields {
		lines = append(lines, name+": "+msg)
	}
	sort.Strings(lines)
	return lines
}
