package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set at build time through -ldflags.
var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

func SetVersionInfo(version, commit, date string) {
	appVersion, appCommit, appDate = version, commit, date
}

var versionCmd = LeafCommand{
	Use:   "version",
	Short: "Print the version information",
	BoolFlags: []BoolFlag{
		{Name: "short", Usage: "print only the version number"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		short, _ := cmd.Flags().GetBool("short")
		runVersion(cmd, short)
		return nil
	},
}.Build()

func runVersion(cmd *cobra.Command, short bool) {
	if short {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), appVersion)
		return
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "regnemetoden %s (commit: %s, built: %s)\n", appVersion, appCommit, appDate)
}
