package ui

import (
	"fmt"
	"strings"

	"github.com/Iilun/survey/v2"
)

// PromptJustification interactively asks for an activation justification.
// Returns ErrNotInteractive when stdin is not a terminal. The answer is
// whitespace-trimmed but may be empty; callers decide whether to reject it.
func PromptJustification() (string, error) {
	if !IsInteractive() {
		return "", ErrNotInteractive
	}

	var justification string
	prompt := &survey.Input{
		Message: "Justification for activation:",
	}
	if err := survey.AskOne(prompt, &justification); err != nil {
		return "", fmt.Errorf("justification prompt failed: %w", err)
	}

	return strings.TrimSpace(justification), nil
}
