package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/emberly/pkg/conversation"
	"github.com/aretw0/emberly/pkg/domain"
	"golang.org/x/term"
)

// Prompt is printed before each read on an interactive terminal.
const Prompt = "> "

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer

	lines  *lineReader
	prompt bool
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerPrompt forces the prompt on or off.
// By default it is shown only when the reader is a terminal.
func WithTextHandlerPrompt(enabled bool) TextHandlerOption {
	return func(h *TextHandler) {
		h.prompt = enabled
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer: w,
		lines:  newLineReader(r),
		prompt: isTerminal(r),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Render(ctx context.Context, snap conversation.Snapshot) error {
	switch snap.State {
	case domain.StateIdle:
		h.status(snap.State, "Press Enter to begin. Type /help for commands.")
	case domain.StateListening:
		h.status(snap.State, "Type your message.")
	case domain.StateThinking:
		h.status(snap.State, "Thinking... (/cancel or Ctrl+C to stop)")
	case domain.StateSpeaking:
		output := snap.Response
		if h.Renderer != nil {
			if rendered, err := h.Renderer(output); err == nil {
				output = rendered
			}
		}
		fmt.Fprintln(h.Writer, strings.TrimSpace(output))
		h.status(snap.State, "Enter to continue, /replay to show it again.")
	case domain.StateError:
		fmt.Fprintln(h.Writer, snap.Error)
		h.status(snap.State, "Enter to go back, or type a message to retry.")
	case domain.StateCanceled:
		h.status(snap.State, "Canceled. Enter to go back.")
	}
	return nil
}

func (h *TextHandler) status(state domain.State, msg string) {
	fmt.Fprintf(h.Writer, "[%s] %s\n", state, msg)
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	for {
		// Only show prompt if context is not yet done
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			if h.prompt {
				fmt.Fprint(h.Writer, Prompt)
			}
		}

		text, err := h.lines.next(ctx)
		if err != nil {
			return "", err
		}

		clean, err := SanitizeInput(strings.TrimSpace(text))
		if err != nil {
			fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
			continue
		}
		return clean, nil
	}
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "[system] %s\n", msg)
	return nil
}

// Close stops the input pump. The handler reads no more input afterwards.
func (h *TextHandler) Close() error {
	h.lines.close()
	return nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
