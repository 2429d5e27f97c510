package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/config"
)

var configResetCmd = LeafCommand{
	Use:   "reset",
	Short: "Restore the default configuration (keeps your user id)",
	BoolFlags: []BoolFlag{
		{Name: "yes", Usage: "skip confirmation prompt"},
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		yes, _ := cmd.Flags().GetBool("yes")
		return runConfigReset(cmd, homeDir, ResolveConfirmFunc(yes))
	},
}.Build()

func runConfigReset(cmd *cobra.Command, homeDir string, confirm ConfirmFunc) error {
	ok, err := confirm("Reset the configuration to its defaults?")
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	cfg, err := config.Read(homeDir)
	if err != nil {
		return err
	}
	def := config.Default(homeDir)
	def.UserID = cfg.UserID
	if err := config.Write(homeDir, &def); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), Text("configuration reset to defaults"))
	return nil
}
