// Package notify delivers outbound email notifications for new contact
// submissions. Delivery is a secondary effect: callers must never report a
// notification failure as a failure of the primary submission.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const resendEndpoint = "https://api.resend.com/emails"

// Message is the notification payload. Device and Locale are optional
// context about the sender, rendered below the message body when set.
type Message struct {
	Name    string
	Email   string
	Company string
	Body    string
	IP      string
	Device  string
	Locale  string
}

// Mailer sends a notification and returns the provider's message ID.
type Mailer interface {
	// Configured reports whether the mailer can actually deliver. An
	// unconfigured mailer is a valid, inert collaborator.
	Configured() bool

	Send(ctx context.Context, msg Message) (string, error)
}

// Resend delivers notifications through the Resend HTTP API. Transient HTTP
// failures are retried with exponential backoff; 4xx responses are treated
// as permanent.
type Resend struct {
	apiKey   string
	from     string
	to       string
	endpoint string
	client   *http.Client
	log      *slog.Logger
}

// NewResend creates a Resend mailer. An empty apiKey yields an unconfigured
// mailer whose Configured method returns false.
func NewResend(apiKey, from, to string, log *slog.Logger) *Resend {
	if log == nil {
		log = slog.Default()
	}
	return &Resend{
		apiKey:   apiKey,
		from:     from,
		to:       to,
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// Configured reports whether an API key is set.
func (r *Resend) Configured() bool {
	return r.apiKey != ""
}

// Send delivers the notification email and returns the Resend email ID.
func (r *Resend) Send(ctx context.Context, msg Message) (string, error) {
	if !r.Configured() {
		return "", fmt.Errorf("notify: resend API key not configured")
	}

	payload, err := json.Marshal(map[string]any{
		"from":    r.from,
		"to":      []string{r.to},
		"subject": "New Contact Form Submission from " + msg.Name,
		"html":    renderHTML(msg),
	})
	if err != nil {
		return "", fmt.Errorf("notify: failed to encode email: %w", err)
	}

	operation := func() (string, error) {
		return r.post(ctx, payload)
	}

	id, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	)
	if err != nil {
		return "", fmt.Errorf("notify: failed to send email: %w", err)
	}

	r.log.Info("notify: email sent", "email_id", id)
	return id, nil
}

func (r *Resend) post(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var result struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return "", backoff.Permanent(fmt.Errorf("unexpected response: %w", err))
		}
		return result.ID, nil

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// Client errors won't heal on retry.
		return "", backoff.Permanent(fmt.Errorf("resend API error %d: %s", resp.StatusCode, body))

	default:
		return "", fmt.Errorf("resend API error %d: %s", resp.StatusCode, body)
	}
}

func renderHTML(msg Message) string {
	company := msg.Company
	if company == "" {
		company = "Not provided"
	}

	var b strings.Builder
	b.WriteString("<h2>New Contact Form Submission</h2>")
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>", html.EscapeString(msg.Name))
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>", html.EscapeString(msg.Email))
	fmt.Fprintf(&b, "<p><strong>Company:</strong> %s</p>", html.EscapeString(company))
	b.WriteString("<p><strong>Message:</strong></p>")
	fmt.Fprintf(&b, "<p>%s</p>", strings.ReplaceAll(html.EscapeString(msg.Body), "\n", "<br>"))
	if msg.IP != "" {
		fmt.Fprintf(&b, "<p><strong>IP Address:</strong> %s</p>", html.EscapeString(msg.IP))
	}
	if msg.Device != "" {
		fmt.Fprintf(&b, "<p><strong>Device:</strong> %s</p>", html.EscapeString(msg.Device))
	}
	if msg.Locale != "" {
		fmt.Fprintf(&b, "<p><strong>Locale:</strong> %s</p>", html.EscapeString(msg.Locale))
	}
	return b.String()
}

