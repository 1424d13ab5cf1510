package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aetherall/neodap/dap"
)

// fakeAdapter stands in for a real debug adapter process: it answers
// every request with a bare success, and emits the handful of events a
// simple launch-stop-continue-terminate session would produce.
type fakeAdapter struct {
	transport *dap.MemTransport
}

func (a *fakeAdapter) handle(env dap.Envelope) {
	if env.Type != dap.MessageRequest {
		return
	}
	a.transport.Send(dap.Envelope{
		Type:       dap.MessageResponse,
		RequestSeq: env.Seq,
		Command:    env.Command,
		Success:    true,
	})
}

func (a *fakeAdapter) event(name string, body any) {
	raw, _ := json.Marshal(body)
	a.transport.Send(dap.Envelope{Type: dap.MessageEvent, Event: name, Body: raw})
}

func main() {
	debugger := dap.New(nil)

	client, adapterSide := dap.NewMemTransportPair()
	adapter := &fakeAdapter{transport: adapterSide}
	adapterSide.OnMessage(adapter.handle)

	session := debugger.Launch("run main.go", "launch", "main.go", true, client)
	fmt.Printf("launched session %s\n", session.Entity().ID())

	if err := session.Initialize("neodapctl", nil); err != nil {
		fmt.Printf("initialize failed: %v\n", err)
		return
	}

	adapter.event("thread", map[string]any{"reason": "started", "threadId": 1})
	adapter.event("stopped", map[string]any{"reason": "breakpoint", "threadId": 1})

	time.Sleep(10 * time.Millisecond)

	one, err := debugger.QueryOne("/sessions/threads(state=stopped)")
	if err != nil {
		fmt.Printf("query failed: %v\n", err)
		return
	}
	fmt.Printf("stopped thread: %s\n", one.ID())

	debugger.SetFocus("/sessions/threads(state=stopped)")
	fmt.Println(debugger.RenderTree())

	adapter.event("terminated", map[string]any{})
	time.Sleep(10 * time.Millisecond)
	fmt.Printf("running sessions: %d\n", debugger.RunningSessions().Peek())

	debugger.Dispose()
}
