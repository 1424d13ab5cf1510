package dap

import "sync"

// MemTransport is an in-process Transport, one end of a pair wired
// directly to each other — used by tests and the example binary to
// exercise the Session/Debugger plumbing without a real adapter
// process or socket (spec.md §6 "the transport is abstract enough to
// be backed by an in-memory pair in tests").
type MemTransport struct {
	mu       sync.Mutex
	peer     *MemTransport
	onMsg    func(Envelope)
	onClosed func(error)
	closed   bool
}

// NewMemTransportPair returns two MemTransports, each other's peer:
// sending on one invokes the other's OnMessage callback.
func NewMemTransportPair() (*MemTransport, *MemTransport) {
	a := &MemTransport{}
	b := &MemTransport{}
	a.peer = b
	b.peer = a
	return a, b
}

func (m *MemTransport) Send(env Envelope) error {
	m.mu.Lock()
	closed := m.closed
	peer := m.peer
	m.mu.Unlock()
	if closed {
		return transportDeadError(env.Command)
	}

	peer.mu.Lock()
	cb := peer.onMsg
	peer.mu.Unlock()
	if cb != nil {
		cb(env)
	}
	return nil
}

func (m *MemTransport) OnMessage(fn func(Envelope)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMsg = fn
}

func (m *MemTransport) OnClosed(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClosed = fn
}

func (m *MemTransport) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	cb := m.onClosed
	peer := m.peer
	m.mu.Unlock()
	if cb != nil {
		cb(nil)
	}

	peer.mu.Lock()
	peerClosed := peer.closed
	peerCb := peer.onClosed
	peer.closed = true
	peer.mu.Unlock()
	if !peerClosed && peerCb != nil {
		peerCb(nil)
	}
	return nil
}
