package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execCompletion(shell string) (string, error) {
	stdout := new(bytes.Buffer)
	cmd := newCompletionGenerateCmd()
	rootForTest := &cobra.Command{Use: "regnemetoden"}
	rootForTest.AddCommand(cmd)
	cmd.SetOut(stdout)
	err := runCompletion(cmd, shell)
	return stdout.String(), err
}

func TestCompletionGenerate(t *testing.T) {
	for _, shell := range validShells {
		t.Run(shell, func(t *testing.T) {
			stdout, err := execCompletion(shell)
			assert.NoError(t, err)
			assert.Contains(t, stdout, "regnemetoden")
		})
	}
}

func TestCompletionInvalidShell(t *testing.T) {
	_, err := execCompletion("invalid")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported shell: invalid")
}

func TestDetectShell(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"/bin/zsh", "zsh"},
		{"/bin/bash", "bash"},
		{"/usr/local/bin/fish", "fish"},
		{"/bin/csh", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("SHELL", tt.env)
			assert.Equal(t, tt.want, detectShell())
		})
	}
}

func TestShellArg(t *testing.T) {
	t.Setenv("SHELL", "/bin/csh")

	shell, err := shellArg([]string{"fish"})
	require.NoError(t, err)
	assert.Equal(t, "fish", shell)

	_, err = shellArg(nil)
	assert.ErrorIs(t, err, errNoShell)
}

func execCompletionInstall(shell, homeDir string, confirm ConfirmFunc) (string, error) {
	stdout := new(bytes.Buffer)
	cmd := &cobra.Command{Use: "test"}
	cmd.SetOut(stdout)
	err := runCompletionInstall(cmd, shell, homeDir, confirm)
	return stdout.String(), err
}

func TestCompletionInstallHappyPath(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ".zshrc"), []byte("# existing\n"), 0644))

	stdout, err := execCompletionInstall("zsh", home, AlwaysYes())
	assert.NoError(t, err)
	assert.Contains(t, stdout, "shell completions installed")

	data, err := os.ReadFile(filepath.Join(home, ".zshrc"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "# existing\n")
	assert.Contains(t, string(data), `eval "$(regnemetoden completion generate zsh)"`)
}

func TestCompletionInstallCreatesNestedConfig(t *testing.T) {
	home := t.TempDir()

	_, err := execCompletionInstall("fish", home, AlwaysYes())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(home, ".config", "fish", "config.fish"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "regnemetoden completion generate fish | source")
}

func TestCompletionInstallAlreadyInstalled(t *testing.T) {
	home := t.TempDir()
	line := "eval \"$(regnemetoden completion generate bash)\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, ".bashrc"), []byte(line), 0644))

	stdout, err := execCompletionInstall("bash", home, AlwaysYes())
	assert.NoError(t, err)
	assert.Contains(t, stdout, "already installed")

	data, err := os.ReadFile(filepath.Join(home, ".bashrc"))
	require.NoError(t, err)
	assert.Equal(t, line, string(data))
}

func TestCompletionInstallDeclined(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(home, ".zshrc"), []byte("# existing\n"), 0644))

	stdout, err := execCompletionInstall("zsh", home, declineAll())
	assert.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(filepath.Join(home, ".zshrc"))
	require.NoError(t, err)
	assert.Equal(t, "# existing\n", string(data))
}

func TestCompletionInstallUnsupportedShell(t *testing.T) {
	_, err := execCompletionInstall("csh", t.TempDir(), AlwaysYes())
	assert.ErrorContains(t, err, "unsupported shell")
}
