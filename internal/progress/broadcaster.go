package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"appforge/internal/logging"
)

// Broadcaster delivers progress events to an external channel. Emit is
// fire-and-forget; the orchestration loop never blocks on delivery.
type Broadcaster interface {
	Emit(event Event)
}

// ChannelBroadcaster pushes events onto a buffered channel consumed by the
// UI. Emission preserves order; when the consumer falls behind and the
// buffer fills, events are dropped and counted rather than blocking the run.
type ChannelBroadcaster struct {
	ch      chan Event
	dropped atomic.Int64
	closed  atomic.Bool
	once    sync.Once
}

// NewChannelBroadcaster creates a broadcaster with the given buffer size.
func NewChannelBroadcaster(bufferSize int) *ChannelBroadcaster {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &ChannelBroadcaster{ch: make(chan Event, bufferSize)}
}

// Emit queues the event without blocking. Events emitted after Close are
// dropped.
func (b *ChannelBroadcaster) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if b.closed.Load() {
		b.dropped.Add(1)
		return
	}
	select {
	case b.ch <- event:
		logging.EventsDebug("Emitted %s: %s", event.Stage, event.Message)
	default:
		n := b.dropped.Add(1)
		logging.EventsWarn("Dropped %s event (buffer full, %d dropped total)", event.Stage, n)
	}
}

// Events returns the channel the UI consumes. Closed by Close.
func (b *ChannelBroadcaster) Events() <-chan Event {
	return b.ch
}

// Dropped returns how many events were discarded.
func (b *ChannelBroadcaster) Dropped() int64 {
	return b.dropped.Load()
}

// Close closes the event channel. Safe to call more than once. Callers must
// stop emitting before Close; late Emits are counted as dropped.
func (b *ChannelBroadcaster) Close() {
	b.once.Do(func() {
		b.closed.Store(true)
		close(b.ch)
		logging.Events("Broadcaster closed, %d events dropped", b.dropped.Load())
	})
}

// Collector records every emitted event in order. Test double for the
// channel broadcaster.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Emit appends the event.
func (c *Collector) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns a copy of all recorded events in emission order.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// ByStage returns recorded events matching the stage.
func (c *Collector) ByStage(stage Stage) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}
