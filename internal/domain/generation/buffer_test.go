package generation_test

import (
	"testing"
	"time"

	"parley/conversation-api/internal/domain/generation"
)

func TestStreamBuffer_FlushIfDue(t *testing.T) {
	buf := generation.NewStreamBuffer(50 * time.Millisecond)

	buf.Append("hello")
	buf.Append(" world")

	// Immediately after appending nothing is due yet.
	if chunk, ok := buf.FlushIfDue(); ok {
		t.Fatalf("expected no flush before interval elapsed, got %q", chunk)
	}

	time.Sleep(60 * time.Millisecond)

	chunk, ok := buf.FlushIfDue()
	if !ok {
		t.Fatal("expected flush after interval elapsed")
	}
	if chunk != "hello world" {
		t.Errorf("flushed chunk = %q, want %q", chunk, "hello world")
	}

	// Buffer is drained; a due interval with no pending text does not flush.
	time.Sleep(60 * time.Millisecond)
	if chunk, ok := buf.FlushIfDue(); ok {
		t.Errorf("expected no flush on empty buffer, got %q", chunk)
	}
}

func TestStreamBuffer_FlushIfDueEmptyBuffer(t *testing.T) {
	buf := generation.NewStreamBuffer(10 * time.Millisecond)

	time.Sleep(20 * time.Millisecond)

	if chunk, ok := buf.FlushIfDue(); ok {
		t.Errorf("expected no flush with nothing appended, got %q", chunk)
	}
}

func TestStreamBuffer_ForceFlush(t *testing.T) {
	buf := generation.NewStreamBuffer(time.Hour)

	buf.Append("tail")

	chunk, ok := buf.ForceFlush()
	if !ok {
		t.Fatal("expected force flush to drain pending text")
	}
	if chunk != "tail" {
		t.Errorf("flushed chunk = %q, want %q", chunk, "tail")
	}

	// A second force flush is a no-op.
	if chunk, ok := buf.ForceFlush(); ok {
		t.Errorf("expected no-op on drained buffer, got %q", chunk)
	}
}

func TestStreamBuffer_AppendAfterFlush(t *testing.T) {
	buf := generation.NewStreamBuffer(time.Hour)

	buf.Append("first")
	if _, ok := buf.ForceFlush(); !ok {
		t.Fatal("expected first flush")
	}

	buf.Append("second")
	chunk, ok := buf.ForceFlush()
	if !ok {
		t.Fatal("expected second flush")
	}
	if chunk != "second" {
		t.Errorf("flushed chunk = %q, want %q", chunk, "second")
	}
}

func TestStreamBuffer_DefaultInterval(t *testing.T) {
	// Zero and negative intervals fall back to the default rather than
	// flushing on every delta.
	buf := generation.NewStreamBuffer(0)

	buf.Append("x")
	if chunk, ok := buf.FlushIfDue(); ok {
		t.Errorf("expected default interval to gate the flush, got %q", chunk)
	}
}
