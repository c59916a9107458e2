package protocol

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"gitlab.com/tozd/go/errors"
)

// RPCMessage is one server-initiated message seen by a client.
type RPCMessage struct {
	Method string
	Params json.RawMessage
	Time   time.Time
}

// RPCTracker records what the server pushes to a client. It backs the
// in-process clients used by tests and the CLI.
type RPCTracker struct {
	mu sync.RWMutex

	messages []RPCMessage
	subs     map[chan<- RPCMessage]struct{}

	// OnCallback answers server callbacks such as workspace/applyEdit.
	OnCallback func(ctx context.Context, method string, params json.RawMessage) (any, error)
}

func NewRPCTracker() *RPCTracker {
	return &RPCTracker{subs: make(map[chan<- RPCMessage]struct{})}
}

// ClientOptions wires the tracker into a jrpc2 client.
func (t *RPCTracker) ClientOptions() *jrpc2.ClientOptions {
	return &jrpc2.ClientOptions{
		OnNotify: func(req *jrpc2.Request) {
			t.Track(messageFromRequest(req))
		},
		OnCallback: func(ctx context.Context, req *jrpc2.Request) (any, error) {
			msg := messageFromRequest(req)
			t.Track(msg)
			if t.OnCallback == nil {
				return nil, errors.Errorf("unexpected callback %s", msg.Method)
			}
			return t.OnCallback(ctx, msg.Method, msg.Params)
		},
	}
}

// Connect starts server on one end of an in-memory channel and returns a
// client on the other end that reports into t.
func (t *RPCTracker) Connect(server *jrpc2.Server) *jrpc2.Client {
	cch, sch := channel.Direct()
	server.Start(sch)
	return jrpc2.NewClient(cch, t.ClientOptions())
}

func messageFromRequest(req *jrpc2.Request) RPCMessage {
	msg := RPCMessage{Method: req.Method(), Time: time.Now()}
	if req.HasParams() {
		msg.Params = json.RawMessage(req.ParamString())
	}
	return msg
}

// Subscribe streams messages tracked from now on. Call the returned function
// to unsubscribe.
func (t *RPCTracker) Subscribe(bufSize int) (<-chan RPCMessage, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan RPCMessage, bufSize)
	t.subs[ch] = struct{}{}

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, ch)
		close(ch)
	}
}

func (t *RPCTracker) Track(msg RPCMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = append(t.messages, msg)
	for ch := range t.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Messages returns the tracked messages with the given method, oldest first.
func (t *RPCTracker) Messages(method string) []RPCMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.DeleteFunc(slices.Clone(t.messages), func(msg RPCMessage) bool {
		return msg.Method != method
	})
}

func (t *RPCTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}

// WaitFor blocks until a message with method matching predicate has been
// tracked, or until timeout. A nil predicate matches anything.
func (t *RPCTracker) WaitFor(method string, timeout time.Duration, predicate func(RPCMessage) bool) (RPCMessage, bool) {
	match := func(msg RPCMessage) bool {
		return msg.Method == method && (predicate == nil || predicate(msg))
	}

	ch, unsub := t.Subscribe(64)
	defer unsub()

	for _, msg := range t.Messages(method) {
		if match(msg) {
			return msg, true
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg := <-ch:
			if match(msg) {
				return msg, true
			}
		case <-timer.C:
			return RPCMessage{}, false
		}
	}
}
