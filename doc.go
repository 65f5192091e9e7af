/*
Package emberly is a single-conversation dialog engine.

A conversation moves through a fixed set of states (idle, listening, thinking,
speaking, error, canceled). Entering thinking starts exactly one outbound
request; canceling, failing and completing that request are mutually
exclusive, and every path ends in a state from which the user can continue.

# Concept

The engine is built from three parts:

  - pkg/domain holds the transition table. It is pure and never fails; an
    illegal event is simply rejected.
  - pkg/client talks to the conversation API. It prefers a server-side session
    and silently falls back to a stateless endpoint when sessions are not
    available.
  - pkg/conversation binds the two: it commits each transition, reports it to
    the telemetry sink and runs the side effect of the new state.

Telemetry only ever carries state and event names. Draft, response and
upstream error text stay inside the Controller.

# Usage

	eng, err := emberly.New("http://localhost:8080/api")
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	eng.Dispatch(domain.EventBegin)
	snap, err := eng.Submit(ctx, "hello")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(snap.State, snap.Response)

Dispatch may be called optimistically: racing CANCEL against a pending
response is safe, and a result that arrives after CANCEL is discarded.
*/
package emberly
