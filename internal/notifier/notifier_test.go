package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"
)

func TestDiscordNotifier_Notify(t *testing.T) {
	tests := []struct {
		name       string
		messages   []string
		username   string
		status     int
		wantPosts  int
		wantErr    bool
		wantStatus int
	}{
		{
			name:      "single post for all messages",
			messages:  []string{"🟢 Alice joined the guild Foo.", "🔴 Bob left the guild Bar."},
			username:  "Guild Tracker",
			status:    http.StatusNoContent,
			wantPosts: 1,
		},
		{
			name:      "ok response",
			messages:  []string{"🟡 Alice moved from Foo to Bar."},
			status:    http.StatusOK,
			wantPosts: 1,
		},
		{
			name:      "no messages no request",
			messages:  nil,
			status:    http.StatusNoContent,
			wantPosts: 0,
		},
		{
			name:       "rate limited",
			messages:   []string{"🟢 Alice joined the guild Foo."},
			status:     http.StatusTooManyRequests,
			wantPosts:  1,
			wantErr:    true,
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "bad request",
			messages:   []string{"🟢 Alice joined the guild Foo."},
			status:     http.StatusBadRequest,
			wantPosts:  1,
			wantErr:    true,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var posts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				posts.Add(1)
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q, want application/json", ct)
				}

				var payload webhookPayload
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					t.Errorf("decoding payload: %v", err)
				}
				if want := strings.Join(tt.messages, "\n"); payload.Content != want {
					t.Errorf("content = %q, want %q", payload.Content, want)
				}
				if payload.Username != tt.username {
					t.Errorf("username = %q, want %q", payload.Username, tt.username)
				}

				w.WriteHeader(tt.status)
				if tt.status >= 400 {
					_, _ = io.WriteString(w, `{"message": "nope"}`)
				}
			}))
			defer server.Close()

			n, err := NewDiscordNotifier(server.URL, tt.username, time.Second)
			if err != nil {
				t.Fatalf("NewDiscordNotifier() error: %v", err)
			}

			err = n.Notify(context.Background(), tt.messages)

			if got := int(posts.Load()); got != tt.wantPosts {
				t.Errorf("server received %d posts, want %d", got, tt.wantPosts)
			}
			if tt.wantErr {
				var deliveryErr *DeliveryError
				if !errors.As(err, &deliveryErr) {
					t.Fatalf("Notify() error = %v, want *DeliveryError", err)
				}
				if deliveryErr.StatusCode != tt.wantStatus {
					t.Errorf("DeliveryError.StatusCode = %d, want %d", deliveryErr.StatusCode, tt.wantStatus)
				}
				if !strings.Contains(deliveryErr.Body, "nope") {
					t.Errorf("DeliveryError.Body = %q, want response body", deliveryErr.Body)
				}
			} else if err != nil {
				t.Errorf("Notify() unexpected error: %v", err)
			}
		})
	}
}

func TestDiscordNotifier_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	n, err := NewDiscordNotifier(url, "", time.Second)
	if err != nil {
		t.Fatalf("NewDiscordNotifier() error: %v", err)
	}

	err = n.Notify(context.Background(), []string{"hello"})
	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("Notify() error = %v, want *DeliveryError", err)
	}
	if deliveryErr.StatusCode != 0 {
		t.Errorf("DeliveryError.StatusCode = %d, want 0", deliveryErr.StatusCode)
	}
}

func TestNewDiscordNotifier(t *testing.T) {
	if _, err := NewDiscordNotifier("", "", time.Second); err == nil {
		t.Error("NewDiscordNotifier(\"\") expected error, got nil")
	}

	n, err := NewDiscordNotifier("https://discord.example/api/webhooks/1/abc", "", 0)
	if err != nil {
		t.Fatalf("NewDiscordNotifier() error: %v", err)
	}
	if n.timeout != timeout {
		t.Errorf("timeout = %v, want default %v", n.timeout, timeout)
	}
}

func rosterMessages(count int) []string {
	messages := make([]string, 0, count)
	for i := 0; i < count; i++ {
		messages = append(messages, fmt.Sprintf("🟢 Player%03d joined the guild Foo.", i))
	}
	return messages
}

func TestFormatContent(t *testing.T) {
	tests := []struct {
		name        string
		messages    []string
		want        string
		wantDropped int
	}{
		{
			name:     "fits",
			messages: []string{"a", "b", "c"},
			want:     "a\nb\nc",
		},
		{
			name:     "exactly at the limit",
			messages: []string{strings.Repeat("x", MaxContentLength-2), "y"},
			want:     strings.Repeat("x", MaxContentLength-2) + "\ny",
		},
		{
			name:        "drops whole messages past the limit",
			messages:    rosterMessages(100),
			want:        strings.Join(rosterMessages(58), "\n"),
			wantDropped: 42,
		},
		{
			name:        "single oversized message is cut",
			messages:    []string{strings.Repeat("x", MaxContentLength+10), "y"},
			want:        strings.Repeat("x", MaxContentLength-1) + "…",
			wantDropped: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, dropped := formatContent(tt.messages)
			if got != tt.want {
				t.Errorf("formatContent() content = %q, want %q", got, tt.want)
			}
			if dropped != tt.wantDropped {
				t.Errorf("formatContent() dropped = %d, want %d", dropped, tt.wantDropped)
			}
			if n := utf8.RuneCountInString(got); n > MaxContentLength {
				t.Errorf("content has %d runes, limit is %d", n, MaxContentLength)
			}
		})
	}
}

func TestDiscordNotifier_TooManyMessages(t *testing.T) {
	messages := rosterMessages(100)

	posted := make(chan webhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		posted <- payload
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n, err := NewDiscordNotifier(server.URL, "", time.Second)
	if err != nil {
		t.Fatalf("NewDiscordNotifier() error: %v", err)
	}

	err = n.Notify(context.Background(), messages)

	var payload webhookPayload
	select {
	case payload = <-posted:
	default:
		t.Fatal("server received no post")
	}
	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) {
		t.Fatalf("Notify() error = %v, want *DeliveryError", err)
	}
	if !errors.Is(err, ErrContentTooLong) {
		t.Errorf("Notify() error = %v, want ErrContentTooLong", err)
	}
	if deliveryErr.Dropped != 42 {
		t.Errorf("DeliveryError.Dropped = %d, want 42", deliveryErr.Dropped)
	}
	if !strings.Contains(err.Error(), "42 of 100") {
		t.Errorf("error message %q should name the dropped count", err.Error())
	}

	lines := strings.Split(payload.Content, "\n")
	if len(lines) != 58 {
		t.Fatalf("posted %d lines, want 58", len(lines))
	}
	for i, line := range lines {
		if line != messages[i] {
			t.Errorf("line %d = %q, want %q", i, line, messages[i])
		}
	}
}

func TestDryRunNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewDryRunNotifier(&buf)

	if err := n.Notify(context.Background(), []string{"🟢 Alice joined the guild Foo.", "🔴 Bob left the guild Bar."}); err != nil {
		t.Fatalf("DryRunNotifier.Notify() error = %v, want nil", err)
	}

	out := buf.String()
	for _, want := range []string{"2 messages", "Alice joined", "Bob left"} {
		if !strings.Contains(out, want) {
			t.Errorf("dry-run output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	err := n.Notify(context.Background(), rosterMessages(100))
	var deliveryErr *DeliveryError
	if !errors.As(err, &deliveryErr) || deliveryErr.Dropped != 42 {
		t.Errorf("DryRunNotifier.Notify() error = %v, want *DeliveryError with 42 dropped", err)
	}
	if !strings.Contains(buf.String(), "42 messages do not fit in one post") {
		t.Errorf("dry-run output should report dropped messages:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Player099") {
		t.Error("dry-run output should not contain messages past the limit")
	}

	buf.Reset()
	if err := n.Notify(context.Background(), nil); err != nil {
		t.Fatalf("DryRunNotifier.Notify(nil) error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("dry-run with no messages wrote %q", buf.String())
	}
}
