/*
Package telemetry implements the conversation event sink.

The Sink accepts only a fixed set of event names and property keys. Property
values are restricted to known state, event, result and reason names, so no
user-authored text can reach a publisher. An event that fails validation is
dropped entirely; it is never partially sanitized.

Accepted events are handed to ports.Publisher implementations: LogPublisher,
Metrics (Prometheus counters) and the Redis stream publisher in
pkg/adapters/redis.
*/
package telemetry
