// Package argus guards authenticated sessions on the request-issuing side:
// it tracks user activity, warns before an idle session expires, enforces a
// hard ceiling on session lifetime and detects signs of session hijacking
// through environment fingerprinting. The companion packages provide the
// advisory and authoritative rate-limit layers, submission storage and the
// HTTP notification endpoint.
package argus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const signOutTimeout = 10 * time.Second

// Guard is the session lifecycle guard. It owns the per-session security
// state, consumes session-change events from the identity provider and
// forces sign-out when the session expires or the fingerprint stops
// matching.
type Guard struct {
	config       Config
	provider     SessionProvider
	fingerprints FingerprintStore
	clock        Clock
	log          *slog.Logger
	hooks        Hooks
	monitor      *Monitor

	mu            sync.Mutex
	state         State
	lastActivity  time.Time
	sessionStart  time.Time
	warned        bool
	signingOut    bool
	countdownStop chan struct{}

	runCtx    context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	started   bool
	closeOnce sync.Once
}

// New creates a new Guard with the given configuration. Config.Provider is
// required; all other fields default per DefaultConfig.
func New(cfg Config) (*Guard, error) {
	if cfg.Provider == nil {
		return nil, ErrNoProvider
	}
	cfg.applyDefaults()

	g := &Guard{
		config:       cfg,
		provider:     cfg.Provider,
		fingerprints: cfg.Fingerprints,
		clock:        cfg.Clock,
		log:          cfg.Logger,
		hooks:        cfg.Hooks,
		state:        StateUnauthenticated,
	}
	g.monitor = newMonitor(cfg.Clock, g.onActivity)
	return g, nil
}

// Activity returns the guard's activity monitor. Interaction signals are fed
// to it via Record or Listen.
func (g *Guard) Activity() *Monitor {
	return g.monitor
}

// State returns the current lifecycle state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// SecurityState returns a snapshot of the per-session security record.
func (g *Guard) SecurityState() SecurityState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return SecurityState{
		LastActivityAt:  g.lastActivity,
		SessionStartAt:  g.sessionStart,
		SecureTransport: g.config.SecureTransport,
	}
}

// TimeRemaining returns how long until the inactivity budget expires.
func (g *Guard) TimeRemaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == StateUnauthenticated {
		return 0
	}
	remaining := g.config.SessionTimeout - g.clock.Now().Sub(g.lastActivity)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Start begins guarding. It checks for an existing session, subscribes to
// the provider's session-change events and starts the periodic tick. The
// guard runs until Close is called.
func (g *Guard) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return fmt.Errorf("argus: guard already started")
	}
	g.started = true
	g.runCtx, g.cancel = context.WithCancel(context.Background())
	g.mu.Unlock()

	session, err := g.provider.Current(ctx)
	switch {
	case errors.Is(err, ErrNoSession):
		// Nothing to guard yet.
	case err != nil:
		g.log.Warn("argus: failed to read current session", "error", err)
	case session != nil && !session.IsExpired(g.clock.Now()):
		g.beginSession(ctx, session)
	}

	g.wg.Add(1)
	go g.run()
	return nil
}

// Close stops the tick, the countdown and the event subscription. It must be
// called on teardown so no timer outlives the guard.
func (g *Guard) Close() error {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		if g.cancel != nil {
			g.cancel()
		}
		g.stopCountdownLocked()
		g.mu.Unlock()
		g.wg.Wait()
	})
	return nil
}

func (g *Guard) run() {
	defer g.wg.Done()

	ticker := g.clock.NewTicker(g.config.TickInterval)
	defer ticker.Stop()

	events := g.provider.Events()
	for {
		select {
		case <-g.runCtx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			g.handleEvent(ev)
		case <-ticker.C():
			g.tick()
		}
	}
}

func (g *Guard) handleEvent(ev SessionEvent) {
	switch ev.Kind {
	case EventSignedIn:
		g.beginSession(g.runCtx, ev.Session)
	case EventSignedOut:
		g.endSession()
	}
}

// beginSession resets the security state for a freshly authenticated
// session. The current fingerprint is validated against the stored one; a
// mismatch forces sign-out before the session is ever treated as active.
func (g *Guard) beginSession(ctx context.Context, session *Session) {
	current := GenerateFingerprint(g.config.Environment)

	stored, ok, err := g.fingerprints.Load()
	if err != nil {
		// Unreadable advisory record: treat as absent rather than locking
		// the user out.
		g.log.Warn("argus: failed to load stored fingerprint", "error", err)
		ok = false
	}

	if ok && !ValidateFingerprint(stored, current) {
		g.log.Warn("argus: fingerprint mismatch at sign-in",
			"user_id", session.Sanitized().UserID)
		// The session was never treated as active; mark it expired so the
		// forced sign-out path runs.
		g.mu.Lock()
		g.state = StateExpired
		g.mu.Unlock()
		g.forceSignOut(ctx, ExpireFingerprint)
		return
	}

	if err := g.fingerprints.Save(current); err != nil {
		g.log.Warn("argus: failed to store fingerprint", "error", err)
	}

	now := g.clock.Now()
	g.mu.Lock()
	g.state = StateActive
	g.lastActivity = now
	g.sessionStart = now
	g.warned = false
	g.stopCountdownLocked()
	g.mu.Unlock()
	g.monitor.reset(now)

	g.log.Info("argus: session guard armed",
		"user_id", session.Sanitized().UserID,
		"risk", SessionRisk(session, now).String())
}

// endSession tears down the security state after a sign-out.
func (g *Guard) endSession() {
	g.mu.Lock()
	g.state = StateUnauthenticated
	g.warned = false
	g.stopCountdownLocked()
	g.mu.Unlock()

	if err := g.fingerprints.Delete(); err != nil {
		g.log.Warn("argus: failed to delete stored fingerprint", "error", err)
	}
}

// tick re-evaluates the session state. It runs every TickInterval; the
// warning countdown provides the finer-grained expiry between ticks.
func (g *Guard) tick() {
	g.mu.Lock()
	if g.state == StateUnauthenticated {
		g.mu.Unlock()
		return
	}

	current := GenerateFingerprint(g.config.Environment)
	stored, ok, err := g.fingerprints.Load()
	if err != nil {
		g.log.Warn("argus: failed to load stored fingerprint", "error", err)
	}
	if err == nil && ok && !ValidateFingerprint(stored, current) {
		g.mu.Unlock()
		g.forceSignOut(g.runCtx, ExpireFingerprint)
		return
	}

	now := g.clock.Now()
	next := Evaluate(now, g.lastActivity, g.sessionStart, g.config)

	switch next {
	case StateExpired:
		reason := ExpireIdle
		if now.Sub(g.sessionStart) > g.config.MaxSessionDuration {
			reason = ExpireMaxDuration
		}
		g.mu.Unlock()
		g.forceSignOut(g.runCtx, reason)
		return

	case StateWarning:
		if !g.warned {
			g.warned = true
			g.state = StateWarning
			remaining := g.config.SessionTimeout - now.Sub(g.lastActivity)
			g.armCountdownLocked(remaining)
			g.mu.Unlock()
			if g.hooks.OnWarning != nil {
				g.hooks.OnWarning(remaining)
			}
			return
		}

	case StateActive:
		// Activity normally clears the warning through onActivity; the tick
		// reconciles in case state drifted.
		g.state = StateActive
		if g.warned {
			g.warned = false
			g.stopCountdownLocked()
		}
	}
	g.mu.Unlock()
}

// onActivity is the monitor callback. Warning clears event-driven, not on
// the next tick.
func (g *Guard) onActivity(now time.Time) {
	g.mu.Lock()
	if g.state == StateUnauthenticated {
		g.mu.Unlock()
		return
	}
	g.lastActivity = now
	if g.warned {
		g.warned = false
		g.state = StateActive
		g.stopCountdownLocked()
	}
	g.mu.Unlock()
}

// ExtendSession refreshes the session token with the identity provider. On
// success the activity clock resets and any warning clears. On failure the
// state is left unchanged; a transient refresh failure must not compound
// into a forced logout.
func (g *Guard) ExtendSession(ctx context.Context) error {
	g.mu.Lock()
	if g.state == StateUnauthenticated {
		g.mu.Unlock()
		return ErrNoSession
	}
	g.mu.Unlock()

	if _, err := g.provider.Refresh(ctx); err != nil {
		g.log.Warn("argus: session refresh failed", "error", err)
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	now := g.clock.Now()
	g.mu.Lock()
	g.lastActivity = now
	g.warned = false
	g.state = StateActive
	g.stopCountdownLocked()
	g.mu.Unlock()
	g.monitor.reset(now)

	g.log.Info("argus: session extended")
	return nil
}

// forceSignOut expires the session and revokes it with the provider.
func (g *Guard) forceSignOut(ctx context.Context, reason ExpireReason) {
	g.mu.Lock()
	// The tick loop and the warning countdown can both observe an expired
	// session; only the first caller revokes it.
	if g.state == StateUnauthenticated || g.signingOut {
		g.mu.Unlock()
		return
	}
	g.signingOut = true
	g.state = StateExpired
	g.warned = false
	g.stopCountdownLocked()
	g.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), signOutTimeout)
		defer cancel()
	}
	if err := g.provider.SignOut(ctx); err != nil {
		g.log.Error("argus: forced sign-out failed", "error", err, "reason", reason.String())
	}

	g.mu.Lock()
	g.state = StateUnauthenticated
	g.signingOut = false
	g.mu.Unlock()

	if err := g.fingerprints.Delete(); err != nil {
		g.log.Warn("argus: failed to delete stored fingerprint", "error", err)
	}

	g.log.Info("argus: session expired", "reason", reason.String())
	if reason == ExpireFingerprint && g.hooks.OnAlert != nil {
		g.hooks.OnAlert("Session security validation failed. Please verify your identity.")
	}
	if g.hooks.OnExpired != nil {
		g.hooks.OnExpired(reason)
	}
}

// armCountdownLocked starts the warning countdown. When it fires, the
// session expires immediately instead of waiting for the next tick. Callers
// must hold g.mu.
func (g *Guard) armCountdownLocked(remaining time.Duration) {
	g.stopCountdownLocked()

	stop := make(chan struct{})
	g.countdownStop = stop
	timer := g.clock.NewTimer(remaining)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer timer.Stop()
		select {
		case <-timer.C():
			g.forceSignOut(g.runCtx, ExpireIdle)
		case <-stop:
		case <-g.runCtx.Done():
		}
	}()
}

// stopCountdownLocked cancels a pending countdown, if any. Callers must
// hold g.mu.
func (g *Guard) stopCountdownLocked() {
	if g.countdownStop != nil {
		close(g.countdownStop)
		g.countdownStop = nil
	}
}
