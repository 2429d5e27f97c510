package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlwaysYes(t *testing.T) {
	ok, err := AlwaysYes()("Sure?")

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolveConfirmFuncYes(t *testing.T) {
	ok, err := ResolveConfirmFunc(true)("Sure?")

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"82.5", 82.5},
		{" 82,5 ", 82.5},
		{"-10", -10},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseNumber(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseNumber("heavy")
	assert.Error(t, err)
}

func TestPromptNumberRetriesUntilValid(t *testing.T) {
	prompts := 0
	prompt := scriptedPrompt("abc", "", "91,2")

	v, err := promptNumber(func(title string) (string, error) {
		prompts++
		return prompt(title)
	}, "Weight")

	require.NoError(t, err)
	assert.Equal(t, 91.2, v)
	assert.Equal(t, 3, prompts)
}

func TestPromptNumberPropagatesError(t *testing.T) {
	_, err := promptNumber(func(string) (string, error) {
		return "", errors.New("aborted")
	}, "Weight")

	assert.EqualError(t, err, "aborted")
}

// scriptedPrompt answers prompts in order and fails once it runs out.
func scriptedPrompt(answers ...string) PromptFunc {
	return func(string) (string, error) {
		if len(answers) == 0 {
			return "", errors.New("unexpected prompt")
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
}

func declineAll() ConfirmFunc {
	return func(string) (bool, error) { return false, nil }
}

func selectIndex(i int) SelectFunc {
	return func(string, []string) (int, error) { return i, nil }
}

func noPrompts(t *testing.T) PromptKit {
	return PromptKit{
		Prompt: func(title string) (string, error) {
			t.Fatalf("unexpected prompt %q", title)
			return "", nil
		},
		Confirm: func(title string) (bool, error) {
			t.Fatalf("unexpected confirm %q", title)
			return false, nil
		},
		Select: func(title string, _ []string) (int, error) {
			t.Fatalf("unexpected select %q", title)
			return 0, nil
		},
	}
}
