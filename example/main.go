package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/arguslabs/argus"
	"github.com/arguslabs/argus/ratelimit"
)

// demoProvider is a toy identity provider: log in once, refresh at will.
// In a real application this wraps your auth backend.
type demoProvider struct {
	mu      sync.Mutex
	session *argus.Session
	events  chan argus.SessionEvent
}

func newDemoProvider() *demoProvider {
	return &demoProvider{events: make(chan argus.SessionEvent, 4)}
}

func (p *demoProvider) signIn() {
	p.mu.Lock()
	p.session = &argus.Session{
		UserID:    "demo-user",
		Email:     "demo@example.com",
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	s := p.session
	p.mu.Unlock()
	p.events <- argus.SessionEvent{Kind: argus.EventSignedIn, Session: s}
}

func (p *demoProvider) Current(ctx context.Context) (*argus.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil, argus.ErrNoSession
	}
	return p.session, nil
}

func (p *demoProvider) Refresh(ctx context.Context) (*argus.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil, argus.ErrNoSession
	}
	p.session.ExpiresAt = time.Now().Add(1 * time.Hour)
	return p.session, nil
}

func (p *demoProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()
	p.events <- argus.SessionEvent{Kind: argus.EventSignedOut}
	return nil
}

func (p *demoProvider) Events() <-chan argus.SessionEvent {
	return p.events
}

func main() {
	provider := newDemoProvider()

	// Short budgets so the demo shows the full lifecycle in under a minute.
	guard, err := argus.New(argus.Config{
		SessionTimeout: 20 * time.Second,
		WarningTime:    10 * time.Second,
		TickInterval:   2 * time.Second,
		Provider:       provider,
		Hooks: argus.Hooks{
			OnWarning: func(remaining time.Duration) {
				fmt.Printf("WARNING: session expires in %s, call ExtendSession to stay signed in\n", remaining.Round(time.Second))
			},
			OnExpired: func(reason argus.ExpireReason) {
				fmt.Printf("session expired (%s)\n", reason)
			},
			OnAlert: func(message string) {
				fmt.Printf("security alert: %s\n", message)
			},
		},
	})
	if err != nil {
		log.Fatalf("creating guard: %v", err)
	}
	defer guard.Close()

	ctx := context.Background()
	if err := guard.Start(ctx); err != nil {
		log.Fatalf("starting guard: %v", err)
	}

	provider.signIn()
	fmt.Println("signed in; guard is watching the session")

	// Simulate a user who works for a bit, idles into the warning window,
	// extends once, then walks away.
	time.Sleep(3 * time.Second)
	guard.Activity().Record(argus.SignalKeyPress)
	fmt.Printf("state after typing: %s, remaining %s\n", guard.State(), guard.TimeRemaining().Round(time.Second))

	time.Sleep(14 * time.Second)
	fmt.Printf("state after idling: %s\n", guard.State())

	if err := guard.ExtendSession(ctx); err != nil {
		log.Fatalf("extending session: %v", err)
	}
	fmt.Printf("state after extending: %s\n", guard.State())

	// Client-side rate limiting with the same library.
	client := ratelimit.NewClient(ratelimit.NewMemoryBucketStore(), 3, time.Minute)
	for i := 1; i <= 4; i++ {
		allowed, retryAfter := client.CheckAndRecord("contact-form")
		fmt.Printf("attempt %d: allowed=%v retryAfter=%s\n", i, allowed, retryAfter)
	}

	fmt.Println("idling until expiry...")
	time.Sleep(25 * time.Second)
	fmt.Printf("final state: %s\n", guard.State())
}
