// Package cache keeps one session's view of the schedule store and
// reconciles optimistic edits with the store's answers.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/haevelyn/schedule/internal/schedule"
)

const defaultResyncTimeout = 10 * time.Second

// Cache is a date keyed view of a schedule.Store owned by one session.
//
// Edits are applied optimistically and then written with the version the
// cache last observed. Edits of the same date run one at a time; edits of
// different dates may run concurrently.
type Cache struct {
	store         schedule.Store
	notifier      Notifier
	policy        schedule.BreakDayPolicy
	resyncTimeout time.Duration

	mu      sync.Mutex
	records map[string]schedule.Record
	// pending counts edits in flight per date.
	pending map[string]int
	// settled holds the value of seq when a date's latest edit settled.
	settled map[string]uint64
	seq     uint64
	locks   map[string]chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithNotifier sets where notices about failed edits go. Defaults to the log.
func WithNotifier(n Notifier) Option {
	return func(c *Cache) {
		c.notifier = n
	}
}

// WithBreakDayPolicy sets what happens to events when a date becomes a break day.
func WithBreakDayPolicy(p schedule.BreakDayPolicy) Option {
	return func(c *Cache) {
		c.policy = p
	}
}

// WithResyncTimeout bounds the re-fetch that follows a failed edit.
func WithResyncTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.resyncTimeout = d
	}
}

// New creates an empty Cache over store.
func New(store schedule.Store, opts ...Option) *Cache {
	c := &Cache{
		store:         store,
		notifier:      logNotifier{},
		policy:        schedule.PreserveEvents,
		resyncTimeout: defaultResyncTimeout,
		records:       make(map[string]schedule.Record),
		pending:       make(map[string]int),
		settled:       make(map[string]uint64),
		locks:         make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached record for date.
func (c *Cache) Get(date string) (schedule.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[date]
	if !ok {
		return schedule.Record{}, false
	}
	return rec.Clone(), true
}

// Snapshot returns a copy of every cached record.
func (c *Cache) Snapshot() map[string]schedule.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := make(map[string]schedule.Record, len(c.records))
	for date, rec := range c.records {
		snapshot[date] = rec.Clone()
	}
	return snapshot
}

// Month returns a copy of the cached records of month.
func (c *Cache) Month(month schedule.YearMonth) map[string]schedule.Record {
	snapshot := c.Snapshot()
	maps.DeleteFunc(snapshot, func(date string, _ schedule.Record) bool {
		return !month.Contains(date)
	})
	return snapshot
}

// ApplyEdit applies edit to date optimistically, writes the result and
// settles the cache with the store's answer. On a conflict or failure the
// date is reverted, the notifier is told, and the date's month is re-fetched
// before ApplyEdit returns. The returned error is the store's error.
func (c *Cache) ApplyEdit(ctx context.Context, date string, edit schedule.Edit) (Outcome, error) {
	if err := schedule.ValidateDate(date); err != nil {
		c.notifier.Notify(Notice{Kind: NoticeInvalid, Date: date, Message: err.Error()})
		return OutcomeRejected, err
	}
	month, _ := schedule.MonthOf(date)

	unlock, err := c.lockDate(ctx, date)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("lock %s > %w", date, err)
	}
	defer unlock()

	before, ok := c.Get(date)
	if !ok {
		before = schedule.Empty(schedule.NoVersion)
	}
	after := schedule.Merge(before, edit, c.policy)
	c.begin(date, after)

	result, err := c.store.Put(ctx, date, after, before.Version)
	s := Reconcile(date, before, result, err)
	c.settle(date, s.Record)

	slog.Default().Debug("settled schedule edit",
		"date", date, "outcome", s.Outcome.String(), "expected_version", before.Version)
	if s.Notice != nil {
		c.notifier.Notify(*s.Notice)
	}
	if s.Resync {
		c.resyncAfterFailure(ctx, month)
	}
	return s.Outcome, s.Err
}

// Resync replaces the cached view of month with the store's and returns the
// dates whose cached value changed. Dates with an edit in flight, or whose
// edit settled after the fetch began, keep their cached value.
func (c *Cache) Resync(ctx context.Context, month schedule.YearMonth) ([]string, error) {
	start := c.currentSeq()
	fetched, err := c.store.FindByMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("store.FindByMonth(%s) > %w", month, err)
	}
	return c.replace(fetched, month.Contains, start), nil
}

// ResyncAll replaces the whole cached view with the store's.
func (c *Cache) ResyncAll(ctx context.Context) ([]string, error) {
	start := c.currentSeq()
	fetched, err := c.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.FindAll() > %w", err)
	}
	return c.replace(fetched, func(string) bool { return true }, start), nil
}

// Load fills the cache with month.
func (c *Cache) Load(ctx context.Context, month schedule.YearMonth) error {
	_, err := c.Resync(ctx, month)
	return err
}

// LoadAll fills the cache with every stored schedule.
func (c *Cache) LoadAll(ctx context.Context) error {
	_, err := c.ResyncAll(ctx)
	return err
}

// resyncAfterFailure re-fetches month even when ctx is already done,
// since ctx expiring is one of the failures that lead here.
func (c *Cache) resyncAfterFailure(ctx context.Context, month schedule.YearMonth) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.resyncTimeout)
	defer cancel()

	if _, err := c.Resync(ctx, month); err != nil {
		slog.Default().Warn("failed to resync after a rejected edit", "month", month.String(), "error", err)
	}
}

func (c *Cache) lockDate(ctx context.Context, date string) (func(), error) {
	c.mu.Lock()
	lock, ok := c.locks[date]
	if !ok {
		lock = make(chan struct{}, 1)
		c.locks[date] = lock
	}
	c.mu.Unlock()

	select {
	case lock <- struct{}{}:
		return func() { <-lock }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// begin marks date as in flight and shows the optimistic value.
func (c *Cache) begin(date string, after schedule.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[date]++
	c.setLocked(date, &after)
}

func (c *Cache) settle(date string, rec *schedule.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[date]--
	if c.pending[date] <= 0 {
		delete(c.pending, date)
	}
	c.seq++
	c.settled[date] = c.seq
	c.setLocked(date, rec)
}

func (c *Cache) currentSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// setLocked stores rec for date; nil or empty records remove the date.
func (c *Cache) setLocked(date string, rec *schedule.Record) {
	if rec == nil || rec.IsEmpty() {
		delete(c.records, date)
		return
	}
	c.records[date] = rec.Clone()
}

func (c *Cache) replace(fetched map[string]schedule.Record, inScope func(date string) bool, start uint64) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	guarded := func(date string) bool {
		return c.pending[date] > 0 || c.settled[date] > start
	}

	var changed []string
	for date := range c.records {
		if !inScope(date) || guarded(date) {
			continue
		}
		if rec, ok := fetched[date]; !ok || rec.IsEmpty() {
			delete(c.records, date)
			changed = append(changed, date)
		}
	}
	for date, rec := range fetched {
		if !inScope(date) || guarded(date) || rec.IsEmpty() {
			continue
		}
		if cached, ok := c.records[date]; ok && cached.Equal(rec) {
			continue
		}
		c.records[date] = rec.Clone()
		changed = append(changed, date)
	}

	sort.Strings(changed)
	return changed
}
