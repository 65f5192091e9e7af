package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/domain"
	"golang.org/x/term"
)

// createLogger configures the application logger.
// Logs go to Stderr so they never mix with the conversation on Stdout.
// debug forces the debug level over the configured one.
func createLogger(level string, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(logging.ParseLevel(level))
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "[system] "+format+"\n", args...)
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("Transition", "from", string(e.From), "to", string(e.To), "event", string(e.Event))
		},
		OnDiscard: func(ctx context.Context, e *domain.DiscardEvent) {
			logger.Debug("Late result discarded", "event", string(e.Event), "state", string(e.State))
		},
	}
}

// combineHooks calls every non-nil hook in order.
func combineHooks(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			for _, h := range all {
				if h.OnTransition != nil {
					h.OnTransition(ctx, e)
				}
			}
		},
		OnDiscard: func(ctx context.Context, e *domain.DiscardEvent) {
			for _, h := range all {
				if h.OnDiscard != nil {
					h.OnDiscard(ctx, e)
				}
			}
		},
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
