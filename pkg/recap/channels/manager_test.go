package channels

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeChannel is an in-memory Channel for tests.
type fakeChannel struct {
	name       string
	connectErr error
	incoming   chan *IncomingMessage
	sent       chan *OutgoingMessage
	connected  bool
}

func newFakeChannel(name string) *fakeChannel {
	return &fakeChannel{
		name:     name,
		incoming: make(chan *IncomingMessage, 8),
		sent:     make(chan *OutgoingMessage, 8),
	}
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Connect(_ context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeChannel) Disconnect() error {
	f.connected = false
	close(f.incoming)
	return nil
}

func (f *fakeChannel) Send(_ context.Context, _ string, msg *OutgoingMessage) error {
	f.sent <- msg
	return nil
}

func (f *fakeChannel) Receive() <-chan *IncomingMessage { return f.incoming }
func (f *fakeChannel) IsConnected() bool                { return f.connected }
func (f *fakeChannel) Health() HealthStatus             { return HealthStatus{Connected: f.connected} }

func TestManager_RegisterDuplicate(t *testing.T) {
	m := NewManager(nil)

	if err := m.Register(newFakeChannel("telegram")); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := m.Register(newFakeChannel("telegram")); err == nil {
		t.Fatal("expected an error for a duplicate channel name")
	}
}

func TestManager_AggregatesMessages(t *testing.T) {
	m := NewManager(nil)
	a := newFakeChannel("a")
	b := newFakeChannel("b")
	m.Register(a)
	m.Register(b)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	a.incoming <- &IncomingMessage{ID: "1", Channel: "a"}
	b.incoming <- &IncomingMessage{ID: "2", Channel: "b"}

	seen := make(map[string]bool)
	for i := 0; i < 2; i++ {
		select {
		case msg := <-m.Messages():
			seen[msg.Channel] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for aggregated messages")
		}
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("seen = %v, want messages from both channels", seen)
	}

	m.Stop()

	// The aggregated stream closes on Stop.
	if _, ok := <-m.Messages(); ok {
		t.Error("expected the message stream to be closed after Stop")
	}
}

func TestManager_StartWithNoChannels(t *testing.T) {
	m := NewManager(nil)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start with no channels should not fail: %v", err)
	}
}

func TestManager_StartAllConnectsFail(t *testing.T) {
	m := NewManager(nil)
	broken := newFakeChannel("broken")
	broken.connectErr = errors.New("no network")
	m.Register(broken)

	if err := m.Start(context.Background()); err == nil {
		t.Fatal("expected an error when no channel connects")
	}
}

func TestManager_Send(t *testing.T) {
	m := NewManager(nil)
	ch := newFakeChannel("telegram")
	m.Register(ch)
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := m.Send(context.Background(), "telegram", "123", &OutgoingMessage{Content: "hi"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	select {
	case msg := <-ch.sent:
		if msg.Content != "hi" {
			t.Errorf("Content = %q", msg.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("message never reached the channel")
	}

	if err := m.Send(context.Background(), "nope", "123", &OutgoingMessage{}); !errors.Is(err, ErrChannelNotFound) {
		t.Errorf("Send to unknown channel: %v, want ErrChannelNotFound", err)
	}
}

func TestManager_HealthAll(t *testing.T) {
	m := NewManager(nil)
	up := newFakeChannel("up")
	down := newFakeChannel("down")
	down.connectErr = errors.New("no network")
	m.Register(up)
	m.Register(down)

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	statuses := m.HealthAll()
	if len(statuses) != 2 {
		t.Fatalf("HealthAll returned %d entries, want 2", len(statuses))
	}
	if !statuses["up"].Connected {
		t.Error("connected channel reported as down")
	}
	if statuses["down"].Connected {
		t.Error("unconnected channel reported as up")
	}

	if _, ok := m.Channel("up"); !ok {
		t.Error("registered channel not found by name")
	}
	if _, ok := m.Channel("nope"); ok {
		t.Error("unknown channel name resolved")
	}
}
