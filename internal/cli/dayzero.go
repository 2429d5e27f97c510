package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var dayzeroCmd = GroupCommand{
	Use:   "dayzero",
	Short: "Finish or undo a plan that starts after tonight's weigh-in",
	Subcommands: []*cobra.Command{
		dayzeroWeighCmd,
		dayzeroBackCmd,
	},
}.Build()

var dayzeroWeighCmd = LeafCommand{
	Use:   "weigh <kg>",
	Short: "Save tonight's weight, the plan starts tomorrow",
	Args:  cobra.ExactArgs(1),
	BoolFlags: []BoolFlag{
		{Name: "yes", Usage: "accept the suggested start weight without asking"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return withSession(cmd, func(s *session) error {
			return runDayZeroWeigh(cmd, s.tracker, ResolveConfirmFunc(yes), args[0])
		})
	},
}.Build()

var dayzeroBackCmd = LeafCommand{
	Use:   "back",
	Short: "Discard the pending plan and everything logged since it was set up",
	BoolFlags: []BoolFlag{
		{Name: "yes", Usage: "skip confirmation prompt"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return withSession(cmd, func(s *session) error {
			return runDayZeroBack(cmd, s.tracker, ResolveConfirmFunc(yes))
		})
	},
}.Build()

func runDayZeroWeigh(cmd *cobra.Command, tr *tracker.Tracker, confirm ConfirmFunc, arg string) error {
	weight, err := parseNumber(arg)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()

	c, err := tr.CaptureDayZeroWeight(ctx, weight)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", Text("day-zero weight saved:"), Primary(formatKg(weight)))

	if s := c.Suggestion; s != nil {
		ok, err := confirm(fmt.Sprintf("Your plan starts from %s but you weigh %s (%+.1f kg). Use %s as the start weight?",
			formatKg(s.Estimated), formatKg(s.Measured), s.Difference(), formatKg(s.Measured)))
		if err != nil {
			return err
		}
		if ok {
			g, err := tr.UpdatePendingStartWeight(ctx, s.Measured)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w)
			printGoal(w, g)
			_, _ = fmt.Fprintln(w)
		}
	}

	_, _ = fmt.Fprintln(w, Text("see you tomorrow, your plan starts then"))
	return nil
}

func runDayZeroBack(cmd *cobra.Command, tr *tracker.Tracker, confirm ConfirmFunc) error {
	ok, err := confirm("Discard the pending plan and everything logged since it was set up?")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := tr.GoBack(commandContext(cmd)); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), Text("pending plan discarded"))
	return nil
}
