package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var foodCmd = GroupCommand{
	Use:   "food",
	Short: "Log, list and remove what you ate today",
	Subcommands: []*cobra.Command{
		foodAddCmd,
		foodListCmd,
		foodRemoveCmd,
	},
}.Build()

var foodAddCmd = LeafCommand{
	Use:   "add <grams>",
	Short: "Log an amount in grams (negative to correct)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return runFoodAdd(cmd, s.tracker, args[0])
		})
	},
}.Build()

var foodListCmd = LeafCommand{
	Use:     "list",
	Short:   "List today's food entries, newest first",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			return runFoodList(cmd, s.tracker)
		})
	},
}.Build()

var foodRemoveCmd = LeafCommand{
	Use:     "remove <index>",
	Short:   "Remove a food entry by its number in food list",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	BoolFlags: []BoolFlag{
		{Name: "yes", Usage: "skip confirmation prompt"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return withSession(cmd, func(s *session) error {
			return runFoodRemove(cmd, s.tracker, ResolveConfirmFunc(yes), args[0])
		})
	},
}.Build()

func runFoodAdd(cmd *cobra.Command, tr *tracker.Tracker, arg string) error {
	amount, err := parseNumber(arg)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	if _, err := tr.AddFood(ctx, amount); err != nil {
		return err
	}
	v, err := tr.Today(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s  %s %s\n",
		Text("logged"), Primary(formatSignedGrams(amount)), Silent("·"),
		remainingStyle(v.Remaining)(formatGrams(v.Remaining)), Text("left today"))
	return nil
}

func runFoodList(cmd *cobra.Command, tr *tracker.Tracker) error {
	v, err := tr.Today(commandContext(cmd))
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(v.Food) == 0 {
		_, _ = fmt.Fprintln(w, Silent("nothing logged today"))
		return nil
	}
	for i, f := range v.Food {
		_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
			Silent(fmt.Sprintf("%3d", i+1)), Text(f.Time.Format(timeOfDayFmt)), Primary(formatSignedGrams(f.Amount)))
	}
	_, _ = fmt.Fprintf(w, "%s  %s\n", Silent("total"), Primary(formatGrams(v.Consumed)))
	return nil
}

// runFoodRemove takes the 1-based number shown by food list.
func runFoodRemove(cmd *cobra.Command, tr *tracker.Tracker, confirm ConfirmFunc, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return fmt.Errorf("index must be a positive number, got %q", arg)
	}
	ctx := commandContext(cmd)
	v, err := tr.Today(ctx)
	if err != nil {
		return err
	}
	if n > len(v.Food) {
		return fmt.Errorf("no food entry %d today (%d logged)", n, len(v.Food))
	}
	f := v.Food[n-1]

	ok, err := confirm(fmt.Sprintf("Remove %s logged at %s?", formatSignedGrams(f.Amount), f.Time.Format(timeOfDayFmt)))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if _, err := tr.RemoveFood(ctx, n-1); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", Text("removed"), Primary(formatSignedGrams(f.Amount)))
	return nil
}
