package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var weighCmd = LeafCommand{
	Use:   "weigh <kg>",
	Short: "Log this morning's weight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return runWeigh(cmd, s.tracker, args[0])
		})
	},
}.Build()

func runWeigh(cmd *cobra.Command, tr *tracker.Tracker, arg string) error {
	weight, err := parseNumber(arg)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	if _, err := tr.LogWeight(ctx, weight); err != nil {
		return err
	}

	v, err := tr.Today(ctx)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s %s\n", Text("morning weight"), Primary(formatKg(weight)))
	_, _ = fmt.Fprintf(w, "%s %s %s\n", Text("you can eat"), Primary(formatGrams(v.Allowance)), Text("today"))
	return nil
}
