package notifier

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// DryRunNotifier prints what would be posted without sending anything
type DryRunNotifier struct {
	w io.Writer
}

// NewDryRunNotifier creates a new dry-run notifier writing to w
func NewDryRunNotifier(w io.Writer) *DryRunNotifier {
	return &DryRunNotifier{w: w}
}

// Notify prints the payload that would be posted. Like the webhook it
// reports messages that would not fit.
func (n *DryRunNotifier) Notify(_ context.Context, messages []string) error {
	if len(messages) == 0 {
		return nil
	}
	content, dropped := formatContent(messages)
	if _, err := fmt.Fprintf(n.w, "--- Webhook post (%d messages) ---\n%s\n", len(messages), content); err != nil {
		return err
	}
	if dropped > 0 {
		if _, err := fmt.Fprintf(n.w, "--- %d messages do not fit in one post ---\n", dropped); err != nil {
			return err
		}
	}
	return truncationError(dropped, len(messages))
}

// formatContent joins messages into one post of at most MaxContentLength
// runes. Only whole messages are included; the count of messages left out
// is returned. A first message that is too long on its own is cut with an
// ellipsis and counted as dropped.
func formatContent(messages []string) (string, int) {
	var b strings.Builder
	length := 0
	for i, msg := range messages {
		n := utf8.RuneCountInString(msg)
		if i > 0 {
			n++ // newline separator
		}
		if length+n > MaxContentLength {
			if i == 0 {
				runes := []rune(msg)
				return string(runes[:MaxContentLength-1]) + "…", len(messages)
			}
			return b.String(), len(messages) - i
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(msg)
		length += n
	}
	return b.String(), 0
}

func truncationError(dropped, total int) error {
	if dropped == 0 {
		return nil
	}
	return &DeliveryError{
		Dropped: dropped,
		Err:     fmt.Errorf("%w: %d of %d messages not posted", ErrContentTooLong, dropped, total),
	}
}
