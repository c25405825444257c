package ratelimit

import (
	"log/slog"
	"time"
)

// BucketStore persists the sliding-window request timestamps for the
// advisory limiter, keyed by a logical bucket name. Stores shared across
// concurrent processes may race on the same bucket; that is an accepted
// limitation of this layer.
type BucketStore interface {
	// Load returns the recorded timestamps for a bucket. A bucket that was
	// never written loads as empty, not as an error.
	Load(bucket string) ([]time.Time, error)

	// Save replaces the recorded timestamps for a bucket.
	Save(bucket string, stamps []time.Time) error

	// Delete removes a bucket.
	Delete(bucket string) error
}

// Client is the advisory sliding-window limiter on the request-issuing side.
// It exists to avoid wasted round-trips and give immediate feedback; it is
// not a security boundary, and any failure of the underlying store is
// resolved in favor of allowing the request.
type Client struct {
	store  BucketStore
	max    int
	window time.Duration
	now    func() time.Time
	log    *slog.Logger
}

// NewClient creates an advisory limiter allowing max requests per window.
func NewClient(store BucketStore, max int, window time.Duration) *Client {
	return &Client{
		store:  store,
		max:    max,
		window: window,
		now:    time.Now,
		log:    slog.Default(),
	}
}

// CheckAndRecord prunes expired timestamps and, if the bucket has room,
// records the request and allows it. When the bucket is full the request is
// denied without recording and retryAfter reports how long until the oldest
// recorded request leaves the window.
func (c *Client) CheckAndRecord(bucket string) (allowed bool, retryAfter time.Duration) {
	now := c.now()

	stamps, err := c.store.Load(bucket)
	if err != nil {
		// Fail open: the authoritative check happens server-side.
		c.log.Warn("ratelimit: bucket load failed, allowing", "bucket", bucket, "error", err)
		return true, 0
	}

	valid := prune(stamps, now, c.window)

	if len(valid) >= c.max {
		oldest := valid[0]
		return false, c.window - now.Sub(oldest)
	}

	valid = append(valid, now)
	if err := c.store.Save(bucket, valid); err != nil {
		c.log.Warn("ratelimit: bucket save failed, allowing", "bucket", bucket, "error", err)
	}
	return true, 0
}

// Remaining returns how many requests the bucket can still take within the
// current window, without recording anything.
func (c *Client) Remaining(bucket string) int {
	stamps, err := c.store.Load(bucket)
	if err != nil {
		return c.max
	}

	valid := prune(stamps, c.now(), c.window)
	remaining := c.max - len(valid)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears a bucket.
func (c *Client) Reset(bucket string) error {
	return c.store.Delete(bucket)
}

// prune keeps only timestamps still inside the window, oldest first.
func prune(stamps []time.Time, now time.Time, window time.Duration) []time.Time {
	valid := stamps[:0:0]
	for _, ts := range stamps {
		if now.Sub(ts) < window {
			valid = append(valid, ts)
		}
	}
	return valid
}
