package dap

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aetherall/neodap/reactive"
)

// DefaultTimeout is the deadline spec.md §5 gives a request with no
// caller-supplied override: "requests default to a 10 second timeout".
const DefaultTimeout = 10 * time.Second

// Future is the handle returned by an outbound request: exactly one of
// Response/Err will be delivered once, either when the adapter replies,
// the timeout elapses, or the owning scope is disposed (spec.md §5
// cancellation via scope disposal).
type Future struct {
	done     chan struct{}
	once     sync.Once
	response Envelope
	err      error
}

// Wait blocks until the future settles and returns its outcome.
func (f *Future) Wait() (Envelope, error) {
	<-f.done
	return f.response, f.err
}

func (f *Future) settle(resp Envelope, err error) {
	f.once.Do(func() {
		f.response = resp
		f.err = err
		close(f.done)
	})
}

// requestTable tracks in-flight outbound requests by sequence number,
// matching each to its response and enforcing the timeout/cancellation
// semantics of spec.md §5. One requestTable is owned per Session.
type requestTable struct {
	transport Transport
	nextSeq   int64

	mu      sync.Mutex
	pending map[int]*Future
}

func newRequestTable(t Transport) *requestTable {
	return &requestTable{transport: t, pending: make(map[int]*Future)}
}

// Send issues command with the given arguments under scope, returning
// a Future that settles on response, timeout (timeout<=0 uses
// DefaultTimeout), or scope disposal — whichever comes first. Each
// call is sent immediately; several requests may be pending at once,
// and each response settles the Future whose seq it answers.
func (rt *requestTable) Send(scope *reactive.Scope, command string, args any, timeout time.Duration) *Future {
	f := &Future{done: make(chan struct{})}

	seq := int(atomic.AddInt64(&rt.nextSeq, 1))
	rt.mu.Lock()
	rt.pending[seq] = f
	rt.mu.Unlock()

	cleanup := func() {
		rt.mu.Lock()
		delete(rt.pending, seq)
		rt.mu.Unlock()
	}

	var raw json.RawMessage
	if args != nil {
		encoded, err := json.Marshal(args)
		if err != nil {
			cleanup()
			f.settle(Envelope{}, malformedError(err.Error()))
			return f
		}
		raw = encoded
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.AfterFunc(timeout, func() {
		cleanup()
		f.settle(Envelope{}, timeoutError(command))
	})

	if scope != nil {
		scope.OnCleanup(func() {
			if timer.Stop() {
				cleanup()
				f.settle(Envelope{}, cancelledError(command))
			}
		})
	}

	env := Envelope{Seq: seq, Type: MessageRequest, Command: command, Arguments: raw}
	if err := rt.transport.Send(env); err != nil {
		timer.Stop()
		cleanup()
		f.settle(Envelope{}, transportDeadError(command))
	}
	return f
}

// Deliver routes an inbound response to its waiting Future, settling
// it if the request is still pending (a request that already timed
// out or was cancelled has no pending entry, so a late response is
// simply dropped).
func (rt *requestTable) Deliver(resp Envelope) {
	rt.mu.Lock()
	f, ok := rt.pending[resp.RequestSeq]
	if ok {
		delete(rt.pending, resp.RequestSeq)
	}
	rt.mu.Unlock()
	if !ok {
		return
	}
	if !resp.Success {
		f.settle(resp, adapterError(resp.Command, resp.Message))
		return
	}
	f.settle(resp, nil)
}

// Abort settles every still-pending request with a transport-dead
// error, used when the transport reports OnClosed.
func (rt *requestTable) Abort() {
	rt.mu.Lock()
	pending := rt.pending
	rt.pending = make(map[int]*Future)
	rt.mu.Unlock()

	for _, f := range pending {
		f.settle(Envelope{}, transportDeadError(""))
	}
}
