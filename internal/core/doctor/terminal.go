package doctor

import (
	"context"
	"os"

	"golang.org/x/term"

	"github.com/colonyops/margin/internal/core/conflict"
)

// isTerminalFunc reports whether fd is a terminal.
// Package-level variable to allow test overrides.
var isTerminalFunc = term.IsTerminal

// TerminalCheck verifies that conflict prompts can be shown.
type TerminalCheck struct {
	policy string
}

// NewTerminalCheck creates a terminal check for the configured conflict
// policy.
func NewTerminalCheck(policy string) *TerminalCheck {
	return &TerminalCheck{policy: policy}
}

func (c *TerminalCheck) Name() string {
	return "Terminal"
}

func (c *TerminalCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	stdin := isTerminalFunc(int(os.Stdin.Fd()))
	switch {
	case stdin:
		result.Items = append(result.Items, CheckItem{
			Label:  "stdin",
			Status: StatusPass,
			Detail: "terminal",
		})
	case c.policy == string(conflict.PolicyPrompt):
		result.Items = append(result.Items, CheckItem{
			Label:  "stdin",
			Status: StatusWarn,
			Detail: "not a terminal, conflicts will keep the local draft instead of prompting",
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "stdin",
			Status: StatusPass,
			Detail: "not a terminal, conflicts answered with " + c.policy,
		})
	}

	if isTerminalFunc(int(os.Stdout.Fd())) {
		result.Items = append(result.Items, CheckItem{Label: "stdout", Status: StatusPass, Detail: "terminal"})
	} else {
		result.Items = append(result.Items, CheckItem{Label: "stdout", Status: StatusPass, Detail: "redirected, use --json for machine output"})
	}

	return result
}
