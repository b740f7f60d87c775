// Package generation runs background LLM runs: streaming, buffering, tool
// execution, repair and finalization.
package generation

import (
	"strings"
	"sync"
	"time"
)

// StreamBuffer accumulates raw stream deltas and releases them at a bounded
// rate. Append never blocks and never fails; flushes are serialized by the
// buffer's own lock, so one buffer has exactly one writer's worth of
// ordering regardless of who calls it.
//
// Content and reasoning each get their own instance, keeping their flush
// clocks independent.
type StreamBuffer struct {
	mu        sync.Mutex
	interval  time.Duration
	pending   strings.Builder
	lastFlush time.Time
}

// NewStreamBuffer creates a buffer that releases at most once per interval.
func NewStreamBuffer(interval time.Duration) *StreamBuffer {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &StreamBuffer{
		interval:  interval,
		lastFlush: time.Now(),
	}
}

// Append adds a delta to the pending buffer.
func (b *StreamBuffer) Append(delta string) {
	if delta == "" {
		return
	}
	b.mu.Lock()
	b.pending.WriteString(delta)
	b.mu.Unlock()
}

// FlushIfDue drains the buffer only when a full interval has passed since
// the last flush. It returns the drained text and whether anything was
// released.
func (b *StreamBuffer) FlushIfDue() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending.Len() == 0 || time.Since(b.lastFlush) < b.interval {
		return "", false
	}
	return b.drain(), true
}

// ForceFlush drains whatever is pending regardless of the interval.
// Flushing an empty buffer is a no-op, so calling it twice is safe.
func (b *StreamBuffer) ForceFlush() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending.Len() == 0 {
		return "", false
	}
	return b.drain(), true
}

// Pending returns the number of buffered bytes.
func (b *StreamBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending.Len()
}

// drain must be called with the lock held.
func (b *StreamBuffer) drain() string {
	out := b.pending.String()
	b.pending.Reset()
	b.lastFlush = time.Now()
	return out
}
