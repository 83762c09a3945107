// Package agents implements the ingestion, analysis and question answering
// stages and the orchestrator that sequences them.
package agents

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks a request the caller can fix.
var ErrInvalidInput = errors.New("invalid input")

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// truncateRunes cuts s to max runes and appends notice when it had to.
func truncateRunes(s string, max int, notice string) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + notice
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
