// Package tracker runs one guild tracking cycle: fetch the roster, load the
// previous state, reconcile, notify and persist.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/guild-tracker/internal/event"
	"github.com/pfrederiksen/guild-tracker/internal/logger"
	"github.com/pfrederiksen/guild-tracker/internal/notifier"
	"github.com/pfrederiksen/guild-tracker/internal/storage"
)

// Fetcher returns the roster currently shown by the source
type Fetcher interface {
	FetchRoster(ctx context.Context) (*event.Snapshot, error)
}

// Store loads and saves the persisted roster state
type Store interface {
	Load() (event.State, error)
	Save(state event.State) error
}

// Result describes the outcome of a run
type Result struct {
	CheckedAt time.Time      `json:"checked_at"`
	Baseline  bool           `json:"baseline"`
	Players   int            `json:"players"`
	Tracked   int            `json:"tracked"`
	Changes   []event.Change `json:"changes"`
	Messages  []string       `json:"messages"`
	Notified  bool           `json:"notified"`
	NotifyErr error          `json:"-"`
}

// Tracker sequences one tracking run
type Tracker struct {
	fetcher  Fetcher
	store    Store
	notifier notifier.Notifier
	lang     event.Language
	log      *logger.Logger
	metrics  *logger.Metrics
	now      func() time.Time
}

// Option configures a Tracker
type Option func(*Tracker)

// WithLanguage sets the wording of change messages
func WithLanguage(lang event.Language) Option {
	return func(t *Tracker) {
		t.lang = lang
	}
}

// WithLogger sets the logger used for run progress
func WithLogger(log *logger.Logger) Option {
	return func(t *Tracker) {
		t.log = log
	}
}

// WithMetrics records run metrics into m
func WithMetrics(m *logger.Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// New creates a Tracker. A nil notifier disables delivery; changes are still
// computed, logged and persisted.
func New(fetcher Fetcher, store Store, n notifier.Notifier, opts ...Option) *Tracker {
	t := &Tracker{
		fetcher:  fetcher,
		store:    store,
		notifier: n,
		lang:     event.English,
		log:      logger.Nop(),
		metrics:  logger.NewMetrics(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run performs one tracking cycle. Fetch/parse failures and state save
// failures are returned as errors; a failed notification is not.
func (t *Tracker) Run(ctx context.Context) (*Result, error) {
	result := &Result{
		CheckedAt: t.now().UTC(),
		Changes:   []event.Change{},
		Messages:  []string{},
	}
	defer t.logMetrics()

	start := time.Now()
	current, err := t.fetcher.FetchRoster(ctx)
	t.metrics.RecordTiming("fetch", time.Since(start))
	if err != nil {
		t.log.Error("Fetching roster failed", nil, err)
		return nil, fmt.Errorf("fetching roster: %w", err)
	}
	result.Players = current.Len()
	t.metrics.AddCounter("players_visible", int64(current.Len()))
	t.log.Debug("Fetched roster", logger.Fields{"players": current.Len()})

	previous, err := t.store.Load()
	if err != nil {
		fields := logger.Fields{}
		var loadErr *storage.LoadError
		if errors.As(err, &loadErr) {
			fields["path"] = loadErr.Path
		}
		t.log.Warn("State unusable, starting from an empty state", fields, err)
		previous = event.State{}
	}
	if previous == nil {
		previous = event.State{}
	}
	t.log.Debug("Loaded state", logger.Fields{"tracked": previous.Len()})

	if previous.Len() == 0 {
		return t.establishBaseline(current, result)
	}

	changes, merged := event.Reconcile(previous, current)
	result.Changes = changes
	result.Messages = event.RenderMessages(changes, t.lang)
	result.Tracked = merged.Len()

	for i, c := range changes {
		t.metrics.IncrCounter("changes_" + string(c.Kind))
		t.log.Info(result.Messages[i], logger.Fields{
			"kind":      string(c.Kind),
			"player":    c.Player,
			"old_guild": c.OldGuild,
			"new_guild": c.NewGuild,
		})
	}
	if len(changes) == 0 {
		t.log.Info("No changes", logger.Fields{"players": current.Len()})
	}

	if len(changes) > 0 && t.notifier != nil {
		t.deliver(ctx, result)
	}

	if err := t.store.Save(merged); err != nil {
		t.log.Error("Saving state failed", nil, err)
		return result, fmt.Errorf("saving state: %w", err)
	}

	return result, nil
}

// establishBaseline persists the first snapshot as-is without reporting anything
func (t *Tracker) establishBaseline(current *event.Snapshot, result *Result) (*Result, error) {
	baseline := current.State()
	result.Baseline = true
	result.Tracked = baseline.Len()

	if err := t.store.Save(baseline); err != nil {
		t.log.Error("Saving baseline failed", nil, err)
		return result, fmt.Errorf("saving baseline: %w", err)
	}

	t.log.Info("Baseline established", logger.Fields{"players": baseline.Len()})
	return result, nil
}

// deliver makes a single notification attempt; failures are recorded, not returned
func (t *Tracker) deliver(ctx context.Context, result *Result) {
	start := time.Now()
	err := t.notifier.Notify(ctx, result.Messages)
	t.metrics.RecordTiming("notify", time.Since(start))

	if err != nil {
		result.NotifyErr = err
		t.metrics.IncrCounter("notify_failures")

		var deliveryErr *notifier.DeliveryError
		if errors.As(err, &deliveryErr) && deliveryErr.Dropped > 0 {
			t.metrics.AddCounter("notify_dropped", int64(deliveryErr.Dropped))
			t.log.Warn("Notification incomplete, some changes were not posted", logger.Fields{
				"messages": len(result.Messages),
				"dropped":  deliveryErr.Dropped,
			}, err)
			return
		}
		t.log.Error("Notification failed, state will still be saved", logger.Fields{"messages": len(result.Messages)}, err)
		return
	}

	result.Notified = true
	t.log.Info("Notification sent", logger.Fields{"messages": len(result.Messages)})
}

func (t *Tracker) logMetrics() {
	t.log.Debug("Run metrics", t.metrics.Fields())
}
