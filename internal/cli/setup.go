package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/plan"
	"github.com/emilstricker/regnemetoden/internal/tracker"
)

var setupCmd = LeafCommand{
	Use:   "setup",
	Short: "Create a weight-loss plan starting today",
	StrFlags: []StringFlag{
		{Name: "start", Usage: "start weight in kg (an estimate is fine when weighing in tonight)"},
		{Name: "target", Usage: "target weight in kg"},
		{Name: "days", Usage: "number of days to reach the target"},
		{Name: "weighting", Usage: "when the first weigh-in happens: tonight or yesterday"},
	},
	BoolFlags: []BoolFlag{
		{Name: "yes", Usage: "replace an existing plan without asking"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := setupFlags{}
		flags.start, _ = cmd.Flags().GetString("start")
		flags.target, _ = cmd.Flags().GetString("target")
		flags.days, _ = cmd.Flags().GetString("days")
		flags.weighting, _ = cmd.Flags().GetString("weighting")
		yes, _ := cmd.Flags().GetBool("yes")

		kit := NewPromptKit()
		kit.Confirm = ResolveConfirmFunc(yes)
		return withSession(cmd, func(s *session) error {
			return runSetup(cmd, s.tracker, kit, flags)
		})
	},
}.Build()

type setupFlags struct {
	start, target, days, weighting string
}

var weightingOptions = []string{
	"Tonight (I weigh in this evening, the plan starts tomorrow)",
	"Yesterday (I weighed in last night, start right away)",
}

func runSetup(cmd *cobra.Command, tr *tracker.Tracker, kit PromptKit, flags setupFlags) error {
	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()

	in, err := resolveSetupInput(kit, flags)
	if err != nil {
		return err
	}

	snap, err := tr.Snapshot(ctx)
	if err != nil {
		return err
	}
	replacing := snap.Pending != nil || (snap.Goal != nil && in.WeightingTime == plan.Yesterday)
	if replacing {
		ok, err := kit.Confirm("You already have a plan. Replace it?")
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(w, Silent("setup cancelled"))
			return nil
		}
	}

	g, err := tr.Setup(ctx, in)
	if err != nil {
		return err
	}

	printGoal(w, g)
	_, _ = fmt.Fprintln(w)
	if g.WeightingTime == plan.Tonight {
		_, _ = fmt.Fprintf(w, "%s\n", Text("weigh in tonight with "+Primary("regnemetoden dayzero weigh <kg>")+", the plan starts tomorrow"))
	} else {
		_, _ = fmt.Fprintf(w, "%s\n", Text("plan started, log your morning weight with "+Primary("regnemetoden weigh <kg>")))
	}
	return nil
}

// resolveSetupInput fills values missing from flags by prompting.
func resolveSetupInput(kit PromptKit, flags setupFlags) (tracker.SetupInput, error) {
	var in tracker.SetupInput
	var err error

	if in.StartWeight, err = numberFlagOrPrompt(kit, flags.start, "Start weight (kg)"); err != nil {
		return in, err
	}
	if in.TargetWeight, err = numberFlagOrPrompt(kit, flags.target, "Target weight (kg)"); err != nil {
		return in, err
	}

	if flags.days != "" {
		if in.NumberOfDays, err = strconv.Atoi(flags.days); err != nil {
			return in, fmt.Errorf("--days must be a whole number, got %q", flags.days)
		}
	} else {
		days, err := promptNumber(kit.Prompt, "Number of days")
		if err != nil {
			return in, err
		}
		in.NumberOfDays = int(days)
	}

	if flags.weighting != "" {
		in.WeightingTime, err = plan.ParseWeightingTime(flags.weighting)
		return in, err
	}
	idx, err := kit.Select("When is your first weigh-in?", weightingOptions)
	if err != nil {
		return in, err
	}
	in.WeightingTime = plan.Tonight
	if idx == 1 {
		in.WeightingTime = plan.Yesterday
	}
	return in, nil
}

func numberFlagOrPrompt(kit PromptKit, flag, title string) (float64, error) {
	if flag != "" {
		return parseNumber(flag)
	}
	return promptNumber(kit.Prompt, title)
}
