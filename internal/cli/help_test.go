package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestColorizeLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"section header", "Available Commands:", []string{"Available Commands:"}},
		{"command listing", "  weigh       Log this morning's weight", []string{"weigh", "Log this morning's weight"}},
		{"flag line", "      --yes   skip confirmation prompt", []string{"--yes", "skip confirmation"}},
		{"footer", `Use "regnemetoden [command] --help" for more information about a command.`, []string{"regnemetoden [command]"}},
		{"plain", "Count the grams between you and your target weight", []string{"Count the grams"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := colorizeLine(tt.line)
			for _, w := range tt.want {
				assert.Contains(t, result, w)
			}
		})
	}
}

func TestColorizedHelpFuncProducesOutput(t *testing.T) {
	// standalone command so shared subcommands are not re-parented
	cmd := &cobra.Command{
		Use:   "test-app",
		Short: "A test CLI app",
	}
	cmd.AddCommand(&cobra.Command{Use: "sub", Short: "A subcommand", Run: func(*cobra.Command, []string) {}})

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	colorizedHelpFunc()(cmd, nil)

	output := buf.String()
	assert.Contains(t, output, "A test CLI app")
	assert.Contains(t, output, "test-app")
	assert.Contains(t, output, "sub")
	assert.Contains(t, output, "Flags:")
}

func TestColorizedHelpFuncRestoresWriter(t *testing.T) {
	cmd := &cobra.Command{Use: "test-app"}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)

	colorizedHelpFunc()(cmd, nil)

	assert.Equal(t, buf, cmd.OutOrStdout())
}
