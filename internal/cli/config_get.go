package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emilstricker/regnemetoden/internal/config"
)

var configGetCmd = LeafCommand{
	Use:   "get [key]",
	Short: "Show one configuration value, or all of them",
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		key := ""
		if len(args) > 0 {
			key = args[0]
		}
		return runConfigGet(cmd, homeDir, key)
	},
}.Build()

func init() {
	configGetCmd.ValidArgs = config.Keys()
}

func runConfigGet(cmd *cobra.Command, homeDir, key string) error {
	cfg, err := config.Read(homeDir)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	if key != "" {
		v, err := config.Get(cfg, key)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, v)
		return nil
	}

	for _, k := range config.Keys() {
		v, _ := config.Get(cfg, k)
		if k == "server.jwt_secret" && v != "" {
			v = "********"
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", Silent(fmt.Sprintf("%-24s", k)), Primary(v))
	}
	return nil
}
