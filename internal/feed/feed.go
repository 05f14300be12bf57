// Package feed keeps a bounded, periodically refreshed view of the most
// recent audit records.
package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"lumonew/internal/audit"
	"lumonew/internal/logger"
	"lumonew/internal/metrics"
	"lumonew/internal/safego"
)

// Defaults and bounds for Config.
const (
	DefaultSize     = 10
	MaxSize         = 50
	DefaultInterval = 30 * time.Second
)

var (
	// ErrStopped is returned by Start and Refresh once the feed was stopped.
	ErrStopped = errors.New("feed: stopped")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("feed: already started")
)

// Loader fetches the n most recent records.
type Loader interface {
	Recent(ctx context.Context, n int) ([]audit.AnnotatedRecord, error)
}

// State is the feed's load state.
type State string

// Feed states.
const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateErrored State = "errored"
)

// Config sizes the feed and sets its refresh interval.
type Config struct {
	Size     int
	Interval time.Duration
}

func (c Config) normalized() Config {
	switch {
	case c.Size <= 0:
		c.Size = DefaultSize
	case c.Size > MaxSize:
		c.Size = MaxSize
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	return c
}

// Snapshot is a copy of the feed's visible state.
type Snapshot struct {
	State     State                   `json:"state"`
	Records   []audit.AnnotatedRecord `json:"records"`
	LastError string                  `json:"last_error,omitempty"`
	UpdatedAt *time.Time              `json:"updated_at,omitempty"`
}

// Option configures a Feed.
type Option func(*Feed)

// WithClock sets the clock used for UpdatedAt.
func WithClock(c audit.Clock) Option {
	return func(f *Feed) { f.clock = c }
}

// WithObserver registers fn to receive a snapshot after every applied
// refresh. fn runs on the refreshing goroutine.
func WithObserver(fn func(Snapshot)) Option {
	return func(f *Feed) { f.observer = fn }
}

// Feed is the recent activity feed. A refresh replaces the records only on
// success; a failed refresh keeps the previous records. When refreshes
// overlap, only the most recently issued one is applied. Nothing is applied
// after Stop.
type Feed struct {
	loader   Loader
	cfg      Config
	clock    audit.Clock
	observer func(Snapshot)

	mu        sync.Mutex
	state     State
	records   []audit.AnnotatedRecord
	lastErr   error
	updatedAt time.Time
	issued    uint64
	started   bool
	stopped   bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates an idle feed.
func New(loader Loader, cfg Config, opts ...Option) *Feed {
	f := &Feed{
		loader:  loader,
		cfg:     cfg.normalized(),
		clock:   audit.SystemClock{},
		state:   StateIdle,
		records: []audit.AnnotatedRecord{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Config returns the effective configuration.
func (f *Feed) Config() Config { return f.cfg }

// Start refreshes immediately and then on every interval until ctx is done
// or Stop is called.
func (f *Feed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return ErrStopped
	}
	if f.started {
		f.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	f.started = true
	f.cancel = cancel
	f.done = make(chan struct{})
	done := f.done
	f.mu.Unlock()

	safego.Go("audit-feed", func() {
		defer close(done)
		f.loop(runCtx)
	})
	return nil
}

func (f *Feed) loop(ctx context.Context) {
	log := logger.Named("audit.feed")
	refresh := func() {
		if err := f.Refresh(ctx); err != nil && !errors.Is(err, ErrStopped) && ctx.Err() == nil {
			log.Warnw("recent activity refresh failed", "error", err)
		}
	}

	refresh()
	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh()
		}
	}
}

// Stop cancels the refresh loop and any in-flight loop refresh, then waits
// for the loop to exit. Results that arrive afterwards are discarded. Stop
// is idempotent.
func (f *Feed) Stop() {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	if f.state == StateLoading {
		f.state = f.settledStateLocked()
	}
	cancel, done := f.cancel, f.done
	f.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Refresh loads the most recent records now. It may run concurrently with
// the interval refresh. The load error is returned, but the feed keeps its
// previous records.
func (f *Feed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return ErrStopped
	}
	f.issued++
	token := f.issued
	f.state = StateLoading
	f.mu.Unlock()

	records, err := f.loader.Recent(ctx, f.cfg.Size)

	f.mu.Lock()
	if f.stopped || token != f.issued {
		stopped := f.stopped
		f.mu.Unlock()
		metrics.RecordFeedRefresh(metrics.ResultDiscarded)
		if stopped {
			return ErrStopped
		}
		return err
	}
	if err != nil {
		f.state = StateErrored
		f.lastErr = err
		metrics.RecordFeedRefresh(metrics.ResultError)
	} else {
		if len(records) > f.cfg.Size {
			records = records[:f.cfg.Size]
		}
		if records == nil {
			records = []audit.AnnotatedRecord{}
		}
		f.records = records
		f.state = StateLoaded
		f.lastErr = nil
		f.updatedAt = f.clock.Now()
		metrics.RecordFeedRefresh(metrics.ResultSuccess)
		metrics.SetFeedRecords(len(records))
	}
	snap := f.snapshotLocked()
	f.mu.Unlock()

	if f.observer != nil {
		f.observer(snap)
	}
	return err
}

// settledStateLocked is the state the last applied refresh left behind.
func (f *Feed) settledStateLocked() State {
	switch {
	case f.lastErr != nil:
		return StateErrored
	case !f.updatedAt.IsZero():
		return StateLoaded
	default:
		return StateIdle
	}
}

// Snapshot returns a copy of the visible state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Feed) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:   f.state,
		Records: append([]audit.AnnotatedRecord(nil), f.records...),
	}
	if snap.Records == nil {
		snap.Records = []audit.AnnotatedRecord{}
	}
	if f.lastErr != nil {
		snap.LastError = f.lastErr.Error()
	}
	if !f.updatedAt.IsZero() {
		at := f.updatedAt
		snap.UpdatedAt = &at
	}
	return snap
}
