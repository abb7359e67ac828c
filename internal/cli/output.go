package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/guild-tracker/internal/event"
	"github.com/pfrederiksen/guild-tracker/internal/tracker"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output
type OutputResult struct {
	CheckedAt   time.Time      `json:"checked_at"`
	Baseline    bool           `json:"baseline"`
	Players     int            `json:"players"`
	Tracked     int            `json:"tracked"`
	Changes     []event.Change `json:"changes"`
	Messages    []string       `json:"messages"`
	ChangeCount int            `json:"change_count"`
	Notified    bool           `json:"notified"`
	NotifyError string         `json:"notify_error,omitempty"`
}

func newOutputResult(r *tracker.Result) *OutputResult {
	out := &OutputResult{
		CheckedAt:   r.CheckedAt,
		Baseline:    r.Baseline,
		Players:     r.Players,
		Tracked:     r.Tracked,
		Changes:     r.Changes,
		Messages:    r.Messages,
		ChangeCount: len(r.Changes),
		Notified:    r.Notified,
	}
	if r.NotifyErr != nil {
		out.NotifyError = r.NotifyErr.Error()
	}
	return out
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.Baseline {
		fmt.Fprintf(w, "Baseline established with %d players.\n", result.Tracked)
		return nil
	}

	if result.ChangeCount == 0 {
		fmt.Fprintln(w, "No changes.")
		return nil
	}

	fmt.Fprintln(w, "Changes:")
	for i, msg := range result.Messages {
		fmt.Fprintf(w, "  %s\n", msg)
		if verbose && i < len(result.Changes) {
			c := result.Changes[i]
			fmt.Fprintf(w, "       Player: %s\n", c.Player)
			if c.OldGuild != "" {
				fmt.Fprintf(w, "       From: %s\n", c.OldGuild)
			}
			if c.NewGuild != "" {
				fmt.Fprintf(w, "       To: %s\n", c.NewGuild)
			}
		}
	}

	counts := event.CountByKind(result.Changes)
	fmt.Fprintf(w, "\nTotal: %d changes (%d joined, %d left, %d transferred)\n",
		result.ChangeCount, counts[event.Joined], counts[event.Left], counts[event.Transferred])

	if result.NotifyError != "" {
		fmt.Fprintf(w, "Warning: notification failed: %s\n", result.NotifyError)
	}
	return nil
}
