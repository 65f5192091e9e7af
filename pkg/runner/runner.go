package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/emberly"
	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/conversation"
	"github.com/aretw0/emberly/pkg/domain"
)

// Conversation is the engine surface the Runner drives.
type Conversation interface {
	Dispatch(ev domain.Event) (domain.TransitionResult, bool)
	SetDraft(text string)
	Snapshot() conversation.Snapshot
	Watch() (conversation.Snapshot, <-chan struct{})
	Abort()
	Emit(ctx context.Context, name domain.TelemetryEvent, props map[string]any) error
}

var _ Conversation = (*emberly.Engine)(nil)

// Runner handles the input loop of one conversation using provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, one is built from Input/Output.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer

	// InterruptSource, when set, is treated like Ctrl+C.
	InterruptSource <-chan struct{}
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads input until the user quits, input ends or ctx is done.
// It re-renders after every committed change, including ones caused by a reply
// arriving while waiting for input. Ctrl+C in listening or thinking dispatches
// CANCEL; anywhere else it ends the run. A request still pending when Run
// returns is aborted. A handler built from Input/Output is closed on return.
func (r *Runner) Run(ctx context.Context, conv Conversation) error {
	handler, owned := r.resolveHandler()
	if owned {
		if c, ok := handler.(io.Closer); ok {
			defer c.Close()
		}
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	signals := NewSignalManager(ctx, r.InterruptSource)
	defer signals.Stop()

	var changed <-chan struct{}
	for {
		if changed == nil || isClosed(changed) {
			var snap conversation.Snapshot
			snap, changed = conv.Watch()
			if err := handler.Render(ctx, snap); err != nil {
				return fmt.Errorf("render error: %w", err)
			}
		}

		line, err := readUntilChanged(signals.Context(), handler, changed)
		if err != nil {
			switch {
			case ctx.Err() != nil:
				r.abort(ctx, conv, logger)
				return ctx.Err()
			case signals.Interrupted():
				signals.Reset()
				if r.interrupt(ctx, conv, logger) {
					continue
				}
				logger.Debug("Runner: interrupt outside a turn, exiting")
				r.abort(ctx, conv, logger)
				return nil
			case isClosed(changed):
				continue
			case errors.Is(err, io.EOF):
				r.abort(ctx, conv, logger)
				return nil
			default:
				r.abort(ctx, conv, logger)
				return fmt.Errorf("input error: %w", err)
			}
		}

		cmd, err := ParseCommand(conv.Snapshot().State, line)
		if err != nil {
			if err := handler.SystemOutput(ctx, err.Error()+". Type /help for commands."); err != nil {
				return err
			}
			continue
		}
		switch {
		case cmd.Quit:
			r.abort(ctx, conv, logger)
			return nil
		case cmd.Help:
			if err := handler.SystemOutput(ctx, HelpText); err != nil {
				return err
			}
			continue
		}
		r.apply(ctx, conv, cmd, logger)
	}
}

// resolveHandler returns the configured handler, or builds one from
// Input/Output that the caller owns and closes.
func (r *Runner) resolveHandler() (IOHandler, bool) {
	if r.Handler != nil {
		return r.Handler, false
	}
	if r.Headless {
		return NewJSONHandler(r.Input, r.Output), true
	}
	return NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer)), true
}

func (r *Runner) apply(ctx context.Context, conv Conversation, cmd Command, logger *slog.Logger) {
	for _, ev := range cmd.Events {
		r.dispatch(ctx, conv, ev, domain.ReasonCancel, logger)
	}
	if cmd.Submit == "" {
		return
	}
	if state := conv.Snapshot().State; state != domain.StateListening {
		logger.Debug("Runner: message dropped", "state", string(state))
		return
	}
	conv.SetDraft(cmd.Submit)
	r.dispatch(ctx, conv, domain.EventSubmit, "", logger)
}

// dispatch reports the UI action when it is legal, then dispatches ev.
func (r *Runner) dispatch(ctx context.Context, conv Conversation, ev domain.Event, reason string, logger *slog.Logger) {
	state := conv.Snapshot().State
	if domain.CanTransition(state, ev) {
		switch ev {
		case domain.EventBegin:
			emit(ctx, conv, domain.TelemetryBeginClicked, nil, logger)
		case domain.EventCancel:
			emit(ctx, conv, domain.TelemetryCancelClicked, map[string]any{domain.PropReason: reason}, logger)
		}
	}
	if _, ok := conv.Dispatch(ev); !ok {
		logger.Debug("Runner: event rejected", "state", string(state), "event", string(ev))
	}
}

// interrupt handles Ctrl+C. It reports whether the run should go on.
func (r *Runner) interrupt(ctx context.Context, conv Conversation, logger *slog.Logger) bool {
	switch conv.Snapshot().State {
	case domain.StateListening, domain.StateThinking:
		r.dispatch(ctx, conv, domain.EventCancel, domain.ReasonEsc, logger)
		return true
	}
	return false
}

func (r *Runner) abort(ctx context.Context, conv Conversation, logger *slog.Logger) {
	if !conv.Snapshot().InFlight {
		return
	}
	emit(context.WithoutCancel(ctx), conv, domain.TelemetryCancelClicked, map[string]any{domain.PropReason: domain.ReasonAbort}, logger)
	conv.Abort()
}

func emit(ctx context.Context, conv Conversation, name domain.TelemetryEvent, props map[string]any, logger *slog.Logger) {
	if err := conv.Emit(ctx, name, props); err != nil {
		logger.Debug("Runner: telemetry not delivered", "event", string(name), "error", err)
	}
}

// readUntilChanged reads a line, giving up when changed closes so the caller can re-render.
func readUntilChanged(ctx context.Context, handler IOHandler, changed <-chan struct{}) (string, error) {
	inputCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-changed:
			cancel()
		case <-inputCtx.Done():
		}
	}()
	return handler.Input(inputCtx)
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
