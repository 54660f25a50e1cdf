// Package hub maintains the set of live chat participants and fans each
// accepted message out to all of them, the sender included. The hub owns all
// mutable connection state; callers interact with it only through the
// register, unregister and broadcast channels.
package hub

import (
	"context"
	"log"
	"sync"
	"time"
)

// Message is the JSON payload exchanged between participants.
type Message struct {
	Content string `json:"content"`
}

// Hub manages participant registration, removal and message fan-out.
// Messages are delivered to the participants connected at the moment the hub
// accepts the broadcast, in accept order. Nothing is retained: a participant
// joining later never sees earlier messages.
type Hub struct {
	participants map[*Participant]bool
	broadcast    chan []byte
	register     chan *Participant
	unregister   chan *Participant
	mu           sync.RWMutex
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
}

// NewHub creates a Hub ready to manage participants. Run must be started in
// its own goroutine before participants are registered.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		participants: make(map[*Participant]bool),
		broadcast:    make(chan []byte),
		register:     make(chan *Participant),
		unregister:   make(chan *Participant),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// RegisterChan returns the channel used to connect a participant.
func (h *Hub) RegisterChan() chan<- *Participant {
	return h.register
}

// UnregisterChan returns the channel used to disconnect a participant.
// Disconnecting a participant that already left is a no-op.
func (h *Hub) UnregisterChan() chan<- *Participant {
	return h.unregister
}

// BroadcastChan returns the channel used to fan a payload out to every
// connected participant.
func (h *Hub) BroadcastChan() chan<- []byte {
	return h.broadcast
}

// Count reports the number of currently connected participants.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.participants)
}

// Run is the hub's event loop. It should be called in a separate goroutine
// and runs until Shutdown is invoked.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case p := <-h.register:
			if p == nil {
				continue
			}
			h.mu.Lock()
			p.closed = false
			h.participants[p] = true
			count := len(h.participants)
			h.mu.Unlock()
			log.Printf("Participant %s connected from %s. Total participants: %d", p.ID, p.addr, count)

			if p.conn != nil {
				h.wg.Add(2)
				go func() {
					defer h.wg.Done()
					p.writePump()
				}()
				go func() {
					defer h.wg.Done()
					p.readPump()
				}()
			}

		case p := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.participants[p]; ok {
				delete(h.participants, p)
				p.closed = true
				count := len(h.participants)
				h.mu.Unlock()
				close(p.send)
				log.Printf("Participant %s disconnected. Total participants: %d", p.ID, count)
			} else {
				h.mu.Unlock()
			}

		case payload := <-h.broadcast:
			h.fanOut(payload)
		}
	}
}

// fanOut delivers one payload to every connected participant. A participant
// whose outbound buffer is full is dropped rather than blocking the loop.
func (h *Hub) fanOut(payload []byte) {
	h.mu.RLock()
	targets := make([]*Participant, 0, len(h.participants))
	for p := range h.participants {
		targets = append(targets, p)
	}
	h.mu.RUnlock()

	var stalled []*Participant
	for _, p := range targets {
		if !h.trySend(p, payload) {
			stalled = append(stalled, p)
		}
	}
	h.dropStalled(stalled)
}

func (h *Hub) trySend(p *Participant, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.participants[p]; !ok || p.closed {
		return false
	}
	select {
	case p.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) dropStalled(stalled []*Participant) {
	if len(stalled) == 0 {
		return
	}

	h.mu.Lock()
	var toClose []chan []byte
	for _, p := range stalled {
		if _, ok := h.participants[p]; ok {
			delete(h.participants, p)
			p.closed = true
			toClose = append(toClose, p.send)
			log.Printf("Participant %s dropped: send buffer full", p.ID)
		}
	}
	h.mu.Unlock()

	for _, ch := range toClose {
		close(ch)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	targets := make([]*Participant, 0, len(h.participants))
	for p := range h.participants {
		targets = append(targets, p)
	}
	h.mu.Unlock()

	for _, p := range targets {
		if p.conn != nil {
			if err := p.conn.Close(); err != nil && !isExpectedCloseError(err) {
				log.Printf("Error closing connection for %s: %v", p.ID, err)
			}
		}
	}
}

// Shutdown stops the event loop, closes every connection and waits for the
// participant goroutines to finish or the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}
