package conversation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/emberly/internal/logging"
	"github.com/aretw0/emberly/pkg/domain"
	"github.com/aretw0/emberly/pkg/ports"
	"github.com/aretw0/emberly/pkg/telemetry"
)

// SafeErrorMessage is the only error text a user ever sees.
const SafeErrorMessage = "The request failed. Please try again."

// request is the in-flight request handle. Identity, not content, decides
// whether a completion may still change state.
type request struct {
	id     uint64
	cancel context.CancelFunc
}

// Controller owns one conversation: its state, buffers and at most one
// outbound request. Dispatch is synchronous; the request result re-enters
// through the same lock as a synthesized RESOLVE or FAIL.
type Controller struct {
	responder ports.Responder
	sink      ports.EventSink
	logger    *slog.Logger
	locale    string
	timeout   time.Duration
	hooks     domain.LifecycleHooks

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    domain.State
	draft    string
	response string
	errText  string
	inflight *request
	seq      uint64
	changed  chan struct{}
	closed   bool
}

// New creates a Controller in the idle state.
func New(responder ports.Responder, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		responder: responder,
		sink:      telemetry.NewSink(),
		logger:    logging.NewNop(),
		ctx:       ctx,
		cancel:    cancel,
		state:     domain.StateIdle,
		changed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch applies ev to the current state. Illegal events are a silent no-op
// and return ok == false. An accepted event commits the state, reports it,
// then runs the side effect of the destination state before returning.
func (c *Controller) Dispatch(ev domain.Event) (domain.TransitionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.TransitionResult{}, false
	}
	return c.dispatchLocked(ev)
}

func (c *Controller) dispatchLocked(ev domain.Event) (domain.TransitionResult, bool) {
	res, ok := domain.Transition(c.state, ev)
	if !ok {
		c.logger.Debug("event rejected", "state", string(c.state), "event", string(ev))
		return res, false
	}

	c.state = res.To
	if res.From == domain.StateThinking && res.To != domain.StateThinking {
		c.releaseLocked()
	}

	c.emit(domain.TelemetryTransition, telemetry.TransitionProps(res))
	if c.hooks.OnTransition != nil {
		c.hooks.OnTransition(c.ctx, &domain.TransitionEvent{Timestamp: time.Now(), TransitionResult: res})
	}
	c.logger.Debug("transition", "from", string(res.From), "to", string(res.To), "event", string(res.Event))

	c.enterLocked(res)
	c.notifyLocked()
	return res, true
}

// enterLocked runs the side effect keyed by the destination state.
func (c *Controller) enterLocked(res domain.TransitionResult) {
	switch res.To {
	case domain.StateListening:
		if res.From == domain.StateSpeaking {
			c.clearLocked()
		}
	case domain.StateThinking:
		c.emit(domain.TelemetryRequestStarted, nil)
		c.startLocked()
	case domain.StateCanceled:
		c.draft = ""
	case domain.StateIdle:
		c.clearLocked()
		c.responder.Reset()
	case domain.StateError, domain.StateSpeaking:
		// Handle already released on leaving thinking; REPLAY keeps the response.
	}
}

func (c *Controller) startLocked() {
	c.seq++
	ctx, cancel := context.WithCancel(c.ctx)
	if c.timeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, c.timeout)
		parent := cancel
		cancel = func() {
			stop()
			parent()
		}
	}

	req := &request{id: c.seq, cancel: cancel}
	c.inflight = req
	text, locale := c.draft, c.locale

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		reply, err := c.responder.Respond(ctx, text, locale)
		c.complete(req, reply, err)
	}()
}

func (c *Controller) complete(req *request, reply *domain.Reply, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight != req {
		if err != nil && isCancellation(err) {
			return
		}
		ev := domain.EventResolve
		if err != nil {
			ev = domain.EventFail
		}
		c.logger.Debug("late result discarded", "state", string(c.state), "event", string(ev), "request", req.id)
		if c.hooks.OnDiscard != nil {
			c.hooks.OnDiscard(c.ctx, &domain.DiscardEvent{Timestamp: time.Now(), Event: ev, State: c.state})
		}
		return
	}

	if err == nil && reply != nil {
		if _, ok := c.dispatchLocked(domain.EventResolve); ok {
			c.response = reply.Text
		}
		return
	}

	// While the handle is held nothing here canceled it, so any error is a failure.
	c.logger.Debug("request failed", "request", req.id, "error", errorClass(err))
	c.emit(domain.TelemetryRequestFailed, map[string]any{domain.PropResult: domain.ResultFail})
	if _, ok := c.dispatchLocked(domain.EventFail); ok {
		c.errText = SafeErrorMessage
	}
}

// SetDraft replaces the input draft.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// State returns the current state.
func (c *Controller) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current state and buffers.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:    c.state,
		Draft:    c.draft,
		Response: c.response,
		Error:    c.errText,
		InFlight: c.inflight != nil,
	}
}

// Changed returns a channel closed at the next committed transition or reset.
func (c *Controller) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// Watch returns the current snapshot together with the channel that closes at
// the next change, read under one lock so no commit falls between them.
func (c *Controller) Watch() (Snapshot, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(), c.changed
}

// AwaitSettled blocks until no request is pending or ctx is done.
func (c *Controller) AwaitSettled(ctx context.Context) (Snapshot, error) {
	for {
		snap, ch := c.Watch()
		if snap.Settled() {
			return snap, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// Abort cancels the in-flight request without changing state.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
}

// Reset aborts any request, clears every buffer, returns to idle and resets the responder.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
	c.state = domain.StateIdle
	c.clearLocked()
	c.responder.Reset()
	c.notifyLocked()
}

// Close aborts any request and waits for background work to finish.
// The controller rejects every event afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.releaseLocked()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) releaseLocked() {
	if c.inflight == nil {
		return
	}
	c.inflight.cancel()
	c.inflight = nil
}

func (c *Controller) clearLocked() {
	c.draft = ""
	c.response = ""
	c.errText = ""
}

func (c *Controller) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller) emit(name domain.TelemetryEvent, props map[string]any) {
	if err := c.sink.Emit(c.ctx, name, props); err != nil {
		c.logger.Debug("telemetry not delivered", "event", string(name), "error", err)
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, domain.ErrCanceled) || errors.Is(err, context.Canceled)
}

// errorClass names the failure without echoing upstream text.
func errorClass(err error) string {
	var statusErr *domain.StatusError
	switch {
	case errors.As(err, &statusErr):
		return statusErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case err == nil:
		return "empty reply"
	default:
		return "transport"
	}
}
