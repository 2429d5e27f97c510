package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var resetCmd = LeafCommand{
	Use:   "reset",
	Short: "Delete the plan and the whole day log",
	BoolFlags: []BoolFlag{
		{Name: "yes", Usage: "skip confirmation prompt"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		return withSession(cmd, func(s *session) error {
			return runReset(cmd, s.tracker, ResolveConfirmFunc(yes))
		})
	},
}.Build()

func runReset(cmd *cobra.Command, tr *tracker.Tracker, confirm ConfirmFunc) error {
	ok, err := confirm("Delete your plan and every logged day? This cannot be undone.")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := tr.Reset(commandContext(cmd)); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), Text("plan and history deleted"))
	return nil
}
