package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// MaxContentLength is the longest message content Discord accepts
	MaxContentLength = 2000

	timeout = 30 * time.Second
)

// ErrContentTooLong is wrapped by a DeliveryError when messages had to be
// left out of the post to stay within MaxContentLength
var ErrContentTooLong = errors.New("content exceeds webhook limit")

// DeliveryError reports a failed or incomplete webhook post
type DeliveryError struct {
	StatusCode int // zero when no response was received
	Body       string
	Dropped    int // messages that were not posted in full
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("webhook error (status %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("webhook error: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// DiscordNotifier posts messages to a Discord webhook
type DiscordNotifier struct {
	webhookURL string
	username   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewDiscordNotifier creates a notifier for the given webhook URL.
// username overrides the webhook's default name when non-empty.
func NewDiscordNotifier(webhookURL, username string, requestTimeout time.Duration) (*DiscordNotifier, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("webhook URL is required")
	}
	if requestTimeout <= 0 {
		requestTimeout = timeout
	}

	return &DiscordNotifier{
		webhookURL: webhookURL,
		username:   username,
		timeout:    requestTimeout,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

type webhookPayload struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// Notify posts all messages as a single webhook message. Messages that do
// not fit are left out and reported as a DeliveryError wrapping
// ErrContentTooLong once the post itself succeeded.
func (n *DiscordNotifier) Notify(ctx context.Context, messages []string) error {
	if len(messages) == 0 {
		return nil
	}

	content, dropped := formatContent(messages)
	jsonData, err := json.Marshal(webhookPayload{
		Content:  content,
		Username: n.username,
	})
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("marshaling payload: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Keep only the start of the body, webhook errors are short JSON documents
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	return truncationError(dropped, len(messages))
}
