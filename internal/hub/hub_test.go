package hub_test

import (
	"testing"
	"time"

	"github.com/relaychat/server/internal/hub"
)

// newTestParticipant returns a participant with no underlying connection.
// The hub leaves the pump goroutines off for connectionless participants, so
// tests can observe deliveries directly on the send channel.
func newTestParticipant(h *hub.Hub, userID int) *hub.Participant {
	return hub.NewParticipant(nil, h, userID, "test", 0)
}

func waitForCount(t *testing.T, h *hub.Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.Count() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("participant count never reached %d (currently %d)", want, h.Count())
}

func expectDelivery(t *testing.T, p *hub.Participant, want string) {
	t.Helper()
	select {
	case payload, ok := <-p.SendChan():
		if !ok {
			t.Fatal("send channel closed before delivery")
		}
		if string(payload) != want {
			t.Errorf("received %q, want %q", payload, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func expectNoDelivery(t *testing.T, p *hub.Participant) {
	t.Helper()
	select {
	case payload, ok := <-p.SendChan():
		if ok {
			t.Errorf("unexpected delivery: %q", payload)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

// TestFanOutDeliversToAllIncludingSender verifies that one broadcast results
// in exactly one delivery per connected participant, the sender included.
func TestFanOutDeliversToAllIncludingSender(t *testing.T) {
	h := hub.NewHub()
	go h.Run()
	defer func() { _ = h.Shutdown(time.Second) }()

	participants := make([]*hub.Participant, 3)
	for i := range participants {
		participants[i] = newTestParticipant(h, i+1)
		h.RegisterChan() <- participants[i]
	}
	waitForCount(t, h, 3)

	h.BroadcastChan() <- []byte(`{"content":"hi"}`)

	for _, p := range participants {
		expectDelivery(t, p, `{"content":"hi"}`)
	}
	// Exactly once: nothing further is queued.
	for _, p := range participants {
		expectNoDelivery(t, p)
	}
}

// TestLateJoinerReceivesNothing verifies that a participant connecting after
// a broadcast never sees it.
func TestLateJoinerReceivesNothing(t *testing.T) {
	h := hub.NewHub()
	go h.Run()
	defer func() { _ = h.Shutdown(time.Second) }()

	early := newTestParticipant(h, 1)
	h.RegisterChan() <- early
	waitForCount(t, h, 1)

	h.BroadcastChan() <- []byte(`{"content":"first"}`)
	expectDelivery(t, early, `{"content":"first"}`)

	late := newTestParticipant(h, 2)
	h.RegisterChan() <- late
	waitForCount(t, h, 2)

	expectNoDelivery(t, late)
}

// TestDisconnectedParticipantReceivesNothing verifies that disconnecting
// removes the participant before subsequent broadcasts.
func TestDisconnectedParticipantReceivesNothing(t *testing.T) {
	h := hub.NewHub()
	go h.Run()
	defer func() { _ = h.Shutdown(time.Second) }()

	leaver := newTestParticipant(h, 1)
	stayer := newTestParticipant(h, 2)
	h.RegisterChan() <- leaver
	h.RegisterChan() <- stayer
	waitForCount(t, h, 2)

	h.UnregisterChan() <- leaver
	waitForCount(t, h, 1)

	h.BroadcastChan() <- []byte(`{"content":"bye"}`)
	expectDelivery(t, stayer, `{"content":"bye"}`)
	expectNoDelivery(t, leaver)
}

// TestDoubleDisconnectIsNoOp verifies that unregistering the same
// participant twice neither panics nor affects the remaining set.
func TestDoubleDisconnectIsNoOp(t *testing.T) {
	h := hub.NewHub()
	go h.Run()
	defer func() { _ = h.Shutdown(time.Second) }()

	p := newTestParticipant(h, 1)
	other := newTestParticipant(h, 2)
	h.RegisterChan() <- p
	h.RegisterChan() <- other
	waitForCount(t, h, 2)

	h.UnregisterChan() <- p
	waitForCount(t, h, 1)
	h.UnregisterChan() <- p

	h.BroadcastChan() <- []byte(`{"content":"still here"}`)
	expectDelivery(t, other, `{"content":"still here"}`)
	if h.Count() != 1 {
		t.Errorf("participant count = %d, want 1", h.Count())
	}
}

// TestBroadcastOrderPreserved verifies that messages are delivered in the
// order the hub accepted them.
func TestBroadcastOrderPreserved(t *testing.T) {
	h := hub.NewHub()
	go h.Run()
	defer func() { _ = h.Shutdown(time.Second) }()

	p := newTestParticipant(h, 1)
	h.RegisterChan() <- p
	waitForCount(t, h, 1)

	messages := []string{`{"content":"one"}`, `{"content":"two"}`, `{"content":"three"}`}
	for _, m := range messages {
		h.BroadcastChan() <- []byte(m)
	}
	for _, m := range messages {
		expectDelivery(t, p, m)
	}
}
