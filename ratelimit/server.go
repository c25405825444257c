package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often expired records are garbage-collected.
const DefaultSweepInterval = 5 * time.Minute

// Record is a fixed-window counter for one (scope, identifier) key. Count
// is monotonically non-decreasing within a window and resets to 1 exactly
// when a request arrives after ResetAt.
type Record struct {
	Count   int
	ResetAt time.Time
}

// RecordStore holds the authoritative window records. It is injected into
// the limiter rather than accessed as ambient state so tests can swap in a
// fake. Implementations only need plain get/set/delete; the limiter
// serializes check-and-increment itself.
type RecordStore interface {
	Get(key string) (Record, bool)
	Set(key string, rec Record)
	Delete(key string)

	// Range calls fn for every record until fn returns false. Used by the
	// expiry sweep.
	Range(fn func(key string, rec Record) bool)
}

// MemoryRecords implements RecordStore with a mutex-protected map.
type MemoryRecords struct {
	mu sync.RWMutex
	m  map[string]Record
}

// NewMemoryRecords creates an empty in-memory record store.
func NewMemoryRecords() *MemoryRecords {
	return &MemoryRecords{m: make(map[string]Record)}
}

func (s *MemoryRecords) Get(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.m[key]
	return rec, ok
}

func (s *MemoryRecords) Set(key string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = rec
}

func (s *MemoryRecords) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

func (s *MemoryRecords) Range(fn func(key string, rec Record) bool) {
	s.mu.RLock()
	snapshot := make(map[string]Record, len(s.m))
	for k, v := range s.m {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	for k, v := range snapshot {
		if !fn(k, v) {
			return
		}
	}
}

// Window is the authoritative fixed-window rate limiter. Records are created
// lazily on the first request for a key and garbage-collected by a periodic
// sweep that runs regardless of traffic and never blocks request handling.
type Window struct {
	store      RecordStore
	window     time.Duration
	now        func() time.Time
	sweepEvery time.Duration

	// mu serializes check-and-increment so concurrent requests for the same
	// key can never lose an update.
	mu sync.Mutex

	// sweepMu guarantees a single active sweep at a time.
	sweepMu sync.Mutex

	stopCh   chan struct{}
	stopOnce sync.Once
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithSweepInterval overrides the expiry sweep cadence.
func WithSweepInterval(d time.Duration) WindowOption {
	return func(w *Window) { w.sweepEvery = d }
}

// WithNow injects a clock for testing.
func WithNow(now func() time.Time) WindowOption {
	return func(w *Window) { w.now = now }
}

// NewWindow creates an authoritative limiter with the given window length
// and starts the background expiry sweep. Stop must be called on shutdown.
func NewWindow(store RecordStore, window time.Duration, opts ...WindowOption) *Window {
	w := &Window{
		store:      store,
		window:     window,
		now:        time.Now,
		sweepEvery: DefaultSweepInterval,
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.sweepLoop()
	return w
}

// Check applies the fixed-window algorithm for one (scope, identifier) key:
// create or reset the record when none exists or the window has lapsed,
// deny without incrementing when the count has reached max, increment and
// allow otherwise. The error is always nil for the in-process store; it is
// part of the signature so distributed implementations can refuse rather
// than fail open.
func (w *Window) Check(ctx context.Context, scope Scope, id string, max int) (Result, error) {
	_ = ctx

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	k := key(scope, id)

	rec, ok := w.store.Get(k)
	if !ok || now.After(rec.ResetAt) {
		rec = Record{Count: 1, ResetAt: now.Add(w.window)}
		w.store.Set(k, rec)
		return Result{Allowed: true, Limit: max, Remaining: max - 1, ResetAt: rec.ResetAt}, nil
	}

	if rec.Count >= max {
		return Result{Allowed: false, Limit: max, Remaining: 0, ResetAt: rec.ResetAt}, nil
	}

	rec.Count++
	w.store.Set(k, rec)
	return Result{Allowed: true, Limit: max, Remaining: max - rec.Count, ResetAt: rec.ResetAt}, nil
}

// Stop halts the background sweep.
func (w *Window) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

func (w *Window) sweepLoop() {
	ticker := time.NewTicker(w.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep removes records whose window has lapsed, bounding memory growth.
func (w *Window) sweep() {
	if !w.sweepMu.TryLock() {
		return
	}
	defer w.sweepMu.Unlock()

	now := w.now()
	var expired []string
	w.store.Range(func(key string, rec Record) bool {
		if now.After(rec.ResetAt) {
			expired = append(expired, key)
		}
		return true
	})
	for _, k := range expired {
		w.store.Delete(k)
	}
}
