package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

type (
	// ConfirmFunc asks a yes/no question.
	ConfirmFunc func(prompt string) (bool, error)
	// PromptFunc asks for a line of text.
	PromptFunc func(prompt string) (string, error)
	// SelectFunc asks for one of options and returns its index.
	SelectFunc func(title string, options []string) (int, error)
)

// PromptKit is injected into commands that ask questions, so tests can
// script the answers.
type PromptKit struct {
	Prompt  PromptFunc
	Confirm ConfirmFunc
	Select  SelectFunc
}

// NewPromptKit returns the interactive huh implementations.
func NewPromptKit() PromptKit {
	return PromptKit{
		Prompt:  huhInput,
		Confirm: huhConfirm,
		Select:  huhSelect,
	}
}

func huhConfirm(prompt string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().Title(prompt).Affirmative("Yes").Negative("No").Value(&ok).Run()
	return ok, err
}

func huhInput(prompt string) (string, error) {
	var answer string
	err := huh.NewInput().Title(prompt).Value(&answer).Run()
	return answer, err
}

func huhSelect(title string, options []string) (int, error) {
	var picked int
	opts := make([]huh.Option[int], len(options))
	for i, o := range options {
		opts[i] = huh.NewOption(o, i)
	}
	err := huh.NewSelect[int]().Title(title).Options(opts...).Value(&picked).Run()
	return picked, err
}

// AlwaysYes confirms without asking.
func AlwaysYes() ConfirmFunc {
	return func(string) (bool, error) { return true, nil }
}

// ResolveConfirmFunc skips the question when --yes was given.
func ResolveConfirmFunc(yes bool) ConfirmFunc {
	if yes {
		return AlwaysYes()
	}
	return huhConfirm
}

// parseNumber accepts both "82.5" and "82,5".
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

// promptNumber asks until the answer parses as a number.
func promptNumber(prompt PromptFunc, title string) (float64, error) {
	for {
		answer, err := prompt(title)
		if err != nil {
			return 0, err
		}
		if v, err := parseNumber(answer); err == nil {
			return v, nil
		}
	}
}
