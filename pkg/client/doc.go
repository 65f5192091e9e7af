/*
Package client implements the network side of a conversation.

A Client acquires a server-side session when the upstream supports it and falls
back permanently to a stateless endpoint when it does not. Every request carries
a fresh correlation identifier in the X-Correlation-ID header. Request and
response content is never logged.
*/
package client
