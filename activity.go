package argus

import (
	"context"
	"sync"
	"time"
)

// SignalKind classifies a user-interaction signal that counts as activity.
type SignalKind int

const (
	SignalPointerPress SignalKind = iota
	SignalPointerMove
	SignalKeyPress
	SignalScroll
	SignalTouchStart
	SignalClick
)

func (k SignalKind) String() string {
	switch k {
	case SignalPointerPress:
		return "pointer-press"
	case SignalPointerMove:
		return "pointer-move"
	case SignalKeyPress:
		return "key-press"
	case SignalScroll:
		return "scroll"
	case SignalTouchStart:
		return "touch-start"
	case SignalClick:
		return "click"
	default:
		return "unknown"
	}
}

// MonitoredSignals is the fixed set of signal kinds the monitor subscribes to.
var MonitoredSignals = []SignalKind{
	SignalPointerPress,
	SignalPointerMove,
	SignalKeyPress,
	SignalScroll,
	SignalTouchStart,
	SignalClick,
}

// Monitor tracks the last-interaction timestamp. Every qualifying signal
// updates the timestamp; there is no debouncing since the cost is a
// timestamp write, not expensive recomputation.
type Monitor struct {
	clock      Clock
	onActivity func(now time.Time)

	mu   sync.RWMutex
	last time.Time
}

func newMonitor(clock Clock, onActivity func(now time.Time)) *Monitor {
	return &Monitor{
		clock:      clock,
		onActivity: onActivity,
		last:       clock.Now(),
	}
}

// Record registers an interaction signal, updating the last-activity
// timestamp and clearing any pending timeout warning. All signal kinds
// carry the same weight.
func (m *Monitor) Record(SignalKind) {
	now := m.clock.Now()

	m.mu.Lock()
	m.last = now
	m.mu.Unlock()

	if m.onActivity != nil {
		m.onActivity(now)
	}
}

// LastActivity returns the timestamp of the most recent recorded signal.
func (m *Monitor) LastActivity() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Listen drains signals from ch until ch closes or ctx is cancelled,
// recording each one. It gives callers a cancellable subscription scoped to
// a session boundary so listeners are never leaked across sessions.
func (m *Monitor) Listen(ctx context.Context, ch <-chan SignalKind) {
	for {
		select {
		case <-ctx.Done():
			return
		case kind, ok := <-ch:
			if !ok {
				return
			}
			m.Record(kind)
		}
	}
}

func (m *Monitor) reset(now time.Time) {
	m.mu.Lock()
	m.last = now
	m.mu.Unlock()
}
