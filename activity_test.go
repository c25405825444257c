package argus

import (
	"context"
	"testing"
	"time"
)

func TestMonitorRecord(t *testing.T) {
	clock := newFakeClock()
	var callbacks []time.Time
	m := newMonitor(clock, func(now time.Time) { callbacks = append(callbacks, now) })

	start := clock.Now()
	if got := m.LastActivity(); !got.Equal(start) {
		t.Errorf("Expected last activity at construction time, got %s", got)
	}

	clock.Advance(5 * time.Minute)
	m.Record(SignalClick)

	if got := m.LastActivity(); !got.Equal(start.Add(5 * time.Minute)) {
		t.Errorf("Expected last activity to advance, got %s", got)
	}
	if len(callbacks) != 1 || !callbacks[0].Equal(start.Add(5*time.Minute)) {
		t.Errorf("Expected one callback at the recorded instant, got %v", callbacks)
	}

	// Every qualifying signal counts; there is no debounce window.
	m.Record(SignalPointerMove)
	m.Record(SignalScroll)
	if len(callbacks) != 3 {
		t.Errorf("Expected a callback per signal, got %d", len(callbacks))
	}
}

func TestMonitorListen(t *testing.T) {
	clock := newFakeClock()
	recorded := make(chan time.Time, len(MonitoredSignals))
	m := newMonitor(clock, func(now time.Time) { recorded <- now })

	ch := make(chan SignalKind)
	done := make(chan struct{})
	go func() {
		m.Listen(context.Background(), ch)
		close(done)
	}()

	for _, kind := range MonitoredSignals {
		ch <- kind
	}
	close(ch)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after the channel closed")
	}
	if len(recorded) != len(MonitoredSignals) {
		t.Errorf("Expected %d recorded signals, got %d", len(MonitoredSignals), len(recorded))
	}
}

func TestMonitorListenCancellation(t *testing.T) {
	clock := newFakeClock()
	m := newMonitor(clock, nil)

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan SignalKind)
	done := make(chan struct{})
	go func() {
		m.Listen(ctx, ch)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Listen did not return after context cancellation")
	}
}

func TestSignalKindStrings(t *testing.T) {
	for _, kind := range MonitoredSignals {
		if kind.String() == "unknown" {
			t.Errorf("Monitored signal %d has no name", kind)
		}
	}
}
