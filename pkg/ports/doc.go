/*
Package ports defines the driven ports (interfaces) of the emberly conversation engine.

These interfaces decouple the controller from concrete network, telemetry and
storage implementations, so tests can swap in fakes.

# Key Interfaces

  - Responder: issues respond calls and resets session routing (pkg/client).
  - EventSink: validates and forwards semantic telemetry (pkg/telemetry).
  - Publisher: transmits accepted telemetry events (log, metrics, redis).
  - NoteStore: the stubbed notes persistence layer.
*/
package ports
