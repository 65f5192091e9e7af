/*
Package conversation binds the transition table to its side effects.

A Controller holds the current state, the draft/response/error buffers and at
most one in-flight request handle. Dispatch validates an event against
domain.Transition, commits the destination state, reports a state.transition
telemetry event and then runs the side effect of the destination:

	listening (from speaking)  clear response, draft and error
	thinking                   start the request
	canceled                   cancel the request, clear the draft
	error                      cancel the request if still outstanding
	idle                       clear every buffer, reset the responder
	speaking (REPLAY)          nothing

The request result comes back as a synthesized RESOLVE or FAIL. A result
whose handle is no longer the held one (after CANCEL, BACK, Abort or Reset)
is discarded and reported through LifecycleHooks.OnDiscard.

Sink publishers and lifecycle hooks run under the controller lock and must
not call back into the Controller.
*/
package conversation
