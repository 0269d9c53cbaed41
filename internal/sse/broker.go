// Package sse implements a Server-Sent Events broker for real-time updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types emitted by the broker.
const (
	TypeClientUpdated = "client.updated"
	TypeClientsReset  = "clients.reset"
	TypeCountsUpdated = "counts.updated"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ClientChange describes a client record change to broadcast.
type ClientChange struct {
	Reset    bool
	ClientID string
	Bucket   string
	Counts   map[string]int
}

// Option configures a Broker.
type Option func(*Broker)

// WithSubscriberHook registers fn to be called from the broker loop with the
// number of connected clients whenever it changes.
func WithSubscriberHook(fn func(int)) Option {
	return func(b *Broker) { b.onSubscribers = fn }
}

// Broker manages SSE client connections and broadcasts events.
//
// A single goroutine owns the subscriber set and the counts throttle. Public
// methods talk to it over channels. Every event carries an increasing id.
type Broker struct {
	countsMin     time.Duration
	onSubscribers func(int)

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan ClientChange
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker with the given counts throttle interval.
func NewBroker(countsThrottle time.Duration, opts ...Option) *Broker {
	if countsThrottle <= 0 {
		countsThrottle = 2 * time.Second
	}

	b := &Broker{
		countsMin:     countsThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan ClientChange, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

// loopState is owned by the run goroutine.
type loopState struct {
	clients map[chan []byte]struct{}
	nextID  uint64

	// Counts published inside the throttle window are held here and sent
	// once the window closes, so subscribers always end on the latest counts.
	lastCounts    time.Time
	pendingCounts map[string]int
	countsTimer   *time.Timer
}

func (st *loopState) broadcast(event Event) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return
	}
	st.nextID++
	raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", st.nextID, event.Type, payload))
	for ch := range st.clients {
		select {
		case ch <- raw:
		default:
			// Slow subscriber; it misses this event rather than stalling the rest.
		}
	}
}

// counts sends c now if the throttle window allows (or force is set) and
// otherwise defers it to the end of the window.
func (st *loopState) counts(c map[string]int, force bool, window time.Duration) {
	now := time.Now()
	if force || now.Sub(st.lastCounts) >= window {
		st.stopCountsTimer()
		st.lastCounts = now
		st.broadcast(Event{Type: TypeCountsUpdated, Data: c})
		return
	}
	st.pendingCounts = c
	if st.countsTimer == nil {
		st.countsTimer = time.NewTimer(window - now.Sub(st.lastCounts))
	}
}

func (st *loopState) flushCounts() {
	st.countsTimer = nil
	if st.pendingCounts == nil {
		return
	}
	st.lastCounts = time.Now()
	st.broadcast(Event{Type: TypeCountsUpdated, Data: st.pendingCounts})
	st.pendingCounts = nil
}

func (st *loopState) stopCountsTimer() {
	if st.countsTimer != nil {
		st.countsTimer.Stop()
		st.countsTimer = nil
	}
	st.pendingCounts = nil
}

func (st *loopState) timerC() <-chan time.Time {
	if st.countsTimer == nil {
		return nil
	}
	return st.countsTimer.C
}

func (b *Broker) run() {
	defer close(b.stopped)

	st := &loopState{clients: make(map[chan []byte]struct{})}
	notify := func() {
		if b.onSubscribers != nil {
			b.onSubscribers(len(st.clients))
		}
	}

	for {
		select {
		case <-b.stopCh:
			st.stopCountsTimer()
			for ch := range st.clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			st.clients[ch] = struct{}{}
			notify()

		case ch := <-b.unsubscribeCh:
			if _, ok := st.clients[ch]; ok {
				delete(st.clients, ch)
				close(ch)
				notify()
			}

		case event := <-b.publishCh:
			st.broadcast(event)

		case c := <-b.changeCh:
			if c.Reset {
				st.broadcast(Event{Type: TypeClientsReset, Data: map[string]string{}})
			} else {
				st.broadcast(Event{Type: TypeClientUpdated, Data: map[string]string{"id": c.ClientID, "bucket": c.Bucket}})
			}
			if c.Counts != nil {
				st.counts(c.Counts, c.Reset, b.countsMin)
			}

		case <-st.timerC():
			st.flushCounts()

		case resp := <-b.countReqCh:
			resp <- len(st.clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishClientChange publishes a client change followed by a throttled
// counts.updated event. Counts held back by the throttle are sent when the
// window closes; a reset sends them immediately.
func (b *Broker) PublishClientChange(c ClientChange) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- c:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
