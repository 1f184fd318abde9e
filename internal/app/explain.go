package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ticketinsights/internal/classify"
	"ticketinsights/internal/rules"
	"ticketinsights/internal/textnorm"
)

var explainFlags struct {
	rules string
}

var explainCmd = &cobra.Command{
	Use:   "explain <text>",
	Short: "Show how each rule scores a piece of ticket text",
	Long: "explain normalizes the text the same way a batch does and prints every\n" +
		"rule's score per rule set, marking the label a batch would assign.",
	Args: cobra.MinimumNArgs(1),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainFlags.rules, "rules", "", "Rule set YAML file (default built-in rules)")
}

func runExplain(cmd *cobra.Command, args []string) error {
	bundle := rules.DefaultBundle()
	if explainFlags.rules != "" {
		var err error
		bundle, err = rules.LoadFile(explainFlags.rules)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		}
	}

	text := textnorm.Normalize(strings.Join(args, " "))
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "normalized: %q\n", text)
	for _, rs := range []*rules.RuleSet{bundle.Trend, bundle.TicketType, bundle.IssueType} {
		chosen := classify.ClassifyWithSet(text, rs)
		fmt.Fprintf(out, "\n%s (threshold %d): %s\n", rs.Name(), rs.Threshold(), chosen.LabelOr("no match"))
		for _, r := range classify.Explain(text, rs) {
			if r.Score == 0 {
				continue
			}
			fmt.Fprintf(out, "  %3d  %s\n", r.Score, r.Label)
		}
	}
	return nil
}
