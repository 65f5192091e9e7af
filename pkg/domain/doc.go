/*
Package domain contains the core domain models of the emberly conversation engine.

It defines the conversation states and events, the fixed transition table, and the
values that cross component boundaries (replies, telemetry names, sentinel errors).
The package is pure: no I/O, no goroutines, no mutable package state.

# Key Entities

  - State / Event: the enumerations driven by the controller.
  - Rule / TransitionResult: the static (state, event) -> state table and its lookup result.
  - Reply: the result of a successful respond call.
  - LifecycleHooks: observability callbacks fired by the controller.
*/
package domain
