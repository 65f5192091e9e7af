package runner

import (
	"context"

	"github.com/aretw0/emberly/pkg/conversation"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Render presents a snapshot. The runner calls it once per committed change.
	Render(ctx context.Context, snap conversation.Snapshot) error

	// Input reads one line from the user. It returns ctx.Err() if ctx ends first.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (help, rejected input).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
