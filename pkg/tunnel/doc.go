/*
Package tunnel implements the agent-to-server persistent channel of
§4.9: Client is the narrow interface PodSync's watch-driven wake-ups
consume, and ReconnectingClient is the only implementation, wrapping
any Dialer with exponential backoff (1s, 2s, 4s, 8s, 16s, 30s, ...) and
seq-based resume.

Conn abstracts one connection attempt; the actual wire protocol is an
external collaborator (the Pingora-based proxy layer, out of scope
here). LocalDialer backs Conn directly with an in-process events.Log,
which is what same-process server+agent wiring (and this package's own
tests) use instead of a real network dial.

Disconnection never blocks PodSync, the service proxy, or DNS — this
package only ever produces events on a channel; nothing downstream
waits on it to reconnect.
*/
package tunnel
