package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "regnemetoden",
	Short:         "Count the grams between you and your target weight",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("date", "", "act as if today were this date (today, yesterday, tomorrow, monday, YYYY-MM-DD)")
	flags.String("user", "", "user id (defaults to the one in config.json)")
	flags.Bool("verbose", false, "log store activity to stderr")

	rootCmd.SetHelpFunc(colorizedHelpFunc())
	rootCmd.AddCommand(
		setupCmd,
		statusCmd,
		weighCmd,
		foodCmd,
		trackCmd,
		dayzeroCmd,
		planCmd,
		reportCmd,
		resetCmd,
		serveCmd,
		tokenCmd,
		configCmd,
		versionCmd,
		completionCmd,
	)
}

// Execute runs the root command and prints a failing command's error.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		_, _ = rootCmd.ErrOrStderr().Write([]byte(Error("error: "+err.Error()) + "\n"))
	}
	return err
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
