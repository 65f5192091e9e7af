package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalManager turns SIGINT/SIGTERM (and an optional in-process source) into
// context cancellation that can be re-armed after each interrupt.
type SignalManager struct {
	parent context.Context
	source <-chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager creates a new manager and immediately starts listening for signals.
// source may be nil; a receive on it counts as an interrupt.
func NewSignalManager(parent context.Context, source <-chan struct{}) *SignalManager {
	sm := &SignalManager{parent: parent, source: source}
	sm.Reset()
	return sm
}

// Context returns the current signal context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Interrupted reports whether the current context ended because of an
// interrupt rather than the parent.
func (sm *SignalManager) Interrupted() bool {
	return sm.ctx.Err() != nil && sm.parent.Err() == nil
}

// Reset re-arms the listener. Call it after an interrupt has been handled.
func (sm *SignalManager) Reset() {
	if sm.cancel != nil {
		sm.cancel()
	}
	ctx, stop := signal.NotifyContext(sm.parent, os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(ctx)
	sm.ctx = ctx
	sm.cancel = func() {
		cancel()
		stop()
	}

	if sm.source != nil {
		go func() {
			select {
			case <-sm.source:
				cancel()
			case <-ctx.Done():
			}
		}()
	}
}

// Stop permanently stops the listener.
func (sm *SignalManager) Stop() {
	if sm.cancel != nil {
		sm.cancel()
	}
}
