package dap

// Transport is the abstract duplex channel a Session speaks DAP over
// (spec.md §6: "the debugger core never opens a socket itself"). A
// concrete transport (stdio pipe to an adapter process, a TCP socket,
// an in-memory pair for tests) implements this against whatever
// framing it needs underneath; neodap only ever sees decoded
// Envelopes.
type Transport interface {
	// Send writes one outbound envelope (a request, or a response to a
	// reverse-request the adapter sent us).
	Send(Envelope) error
	// OnMessage registers the callback invoked for every inbound
	// envelope (responses, events, reverse-requests). Only one callback
	// is supported; a second call replaces the first.
	OnMessage(func(Envelope))
	// OnClosed registers the callback invoked once, when the transport
	// is no longer usable — the adapter process exited or the
	// connection dropped. err is nil for a clean close.
	OnClosed(func(err error))
	// Close releases the transport's underlying resource.
	Close() error
}
