package notifier

import "context"

// Notifier defines the interface for delivering change messages
type Notifier interface {
	// Notify delivers all messages of a run in one attempt
	Notify(ctx context.Context, messages []string) error
}
