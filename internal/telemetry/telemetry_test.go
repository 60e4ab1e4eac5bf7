package telemetry

import (
	"bytes"
	"log"
	"testing"
)

func TestWrapLogger(t *testing.T) {
	t.Run("nil logger", func(t *testing.T) {
		logger := WrapLogger(nil)
		logger.Printf("ignored %d", 42)
	})

	t.Run("forwards to logger", func(t *testing.T) {
		var buf bytes.Buffer
		base := log.New(&buf, "", 0)
		logger := WrapLogger(base)
		logger.Printf("hello %s", "world")
		if got := buf.String(); got != "hello world\n" {
			t.Fatalf("unexpected log output: %q", got)
		}
	})
}

func TestCounters(t *testing.T) {
	counters := NewCounters()
	counters.Add("steps", 2)
	counters.Add("steps", 3)
	counters.Store("actors", 7)

	snapshot := counters.Snapshot()
	if snapshot["steps"] != 5 {
		t.Fatalf("expected steps=5, got %d", snapshot["steps"])
	}
	if snapshot["actors"] != 7 {
		t.Fatalf("expected actors=7, got %d", snapshot["actors"])
	}

	keys := counters.Keys()
	if len(keys) != 2 || keys[0] != "actors" || keys[1] != "steps" {
		t.Fatalf("unexpected key order: %v", keys)
	}

	// Nil receivers must be safe for optional wiring.
	var nilCounters *Counters
	nilCounters.Add("ignored", 1)
	nilCounters.Store("ignored", 1)
	if nilCounters.Snapshot() != nil {
		t.Fatalf("expected nil snapshot from nil counters")
	}
}
