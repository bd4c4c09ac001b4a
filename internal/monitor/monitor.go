// Package monitor polls the socket table, keeps the sorted and filtered view
// of it and orchestrates process kills against that view.
package monitor

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pratik-anurag/porter/internal/model"
	"github.com/pratik-anurag/porter/internal/snapshot"
	"github.com/pratik-anurag/porter/internal/sys"
)

// DefaultInterval is the poll period.
const DefaultInterval = time.Second

// Lister captures one snapshot of open sockets.
type Lister interface {
	List(ctx context.Context) ([]model.Record, error)
}

// Killer terminates processes.
type Killer interface {
	Terminate(ctx context.Context, pids []int) sys.ActionResult
}

// Config holds monitor settings.
type Config struct {
	Interval time.Duration
	Sort     SortSpec
	Log      *slog.Logger
}

// Monitor exclusively owns the snapshot and view state. Consumers read it
// through View/Subscribe and change it only through the methods below.
type Monitor struct {
	lister Lister
	killer Killer
	log    *slog.Logger

	mu        sync.Mutex
	previous  []model.Record
	records   []model.Record
	query     string
	selection map[model.Key]bool
	sort      SortSpec
	interval  time.Duration
	updatedAt time.Time
	polls     uint64
	// killGen changes whenever a kill edits the retained snapshot, so a
	// capture taken before the kill is not adopted after it.
	killGen uint64

	// busy counts kills in flight; poll ticks are skipped while it is nonzero.
	busy atomic.Int32

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	retick chan time.Duration

	subsMu  sync.Mutex
	subs    map[int]chan View
	nextSub int
}

// New creates a stopped monitor.
func New(cfg Config, lister Lister, killer Killer) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if len(cfg.Sort) == 0 {
		cfg.Sort = DefaultSort
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Monitor{
		lister:    lister,
		killer:    killer,
		log:       cfg.Log,
		selection: make(map[model.Key]bool),
		sort:      slices.Clone(cfg.Sort),
		interval:  cfg.Interval,
		subs:      make(map[int]chan View),
	}
}

// StartPolling polls once right away on the worker goroutine, then every
// interval. Calling it while already polling does nothing. After a stop, the
// new loop begins only once the previous one has exited, so at most one
// poll runs at a time.
func (m *Monitor) StartPolling() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	prev := m.done
	m.cancel = cancel
	m.done = make(chan struct{})
	m.retick = make(chan time.Duration, 1)

	m.mu.Lock()
	interval := m.interval
	m.mu.Unlock()

	retick, done := m.retick, m.done
	go func() {
		// A loop stopped moments ago may still be finishing a capture.
		if prev != nil {
			<-prev
		}
		m.loop(ctx, interval, retick, done)
	}()
	m.log.Debug("polling started", "interval", interval)
}

// StopPolling cancels the timer and clears the search query. A poll already
// running is left to finish.
func (m *Monitor) StopPolling() {
	m.runMu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
		m.retick = nil
		m.log.Debug("polling stopped")
	}
	m.runMu.Unlock()

	m.SetQuery("")
}

// Polling reports whether the timer is armed.
func (m *Monitor) Polling() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.cancel != nil
}

// Wait blocks until the current polling goroutine has exited, or returns at
// once when not polling.
func (m *Monitor) Wait() {
	m.runMu.Lock()
	done := m.done
	m.runMu.Unlock()
	if done != nil {
		<-done
	}
}

// SetInterval changes the poll period; a running timer is re-armed.
func (m *Monitor) SetInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	m.mu.Lock()
	m.interval = d
	m.mu.Unlock()

	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.retick == nil {
		return
	}
	select {
	case m.retick <- d:
	default:
		<-m.retick
		m.retick <- d
	}
}

func (m *Monitor) loop(ctx context.Context, interval time.Duration, retick <-chan time.Duration, done chan struct{}) {
	defer close(done)
	if ctx.Err() != nil {
		return
	}

	m.Poll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case d := <-retick:
			ticker.Reset(d)
		case <-ticker.C:
			m.Poll(ctx)
		}
	}
}

// Poll runs one tick: capture, parse, diff against the retained snapshot,
// sort, adopt, and publish only when something was added or removed.
// It is skipped entirely while a kill is in flight.
func (m *Monitor) Poll(ctx context.Context) {
	if m.busy.Load() > 0 {
		m.log.Debug("poll skipped, kill in progress")
		return
	}

	m.mu.Lock()
	gen := m.killGen
	m.mu.Unlock()

	recs, err := m.lister.List(ctx)
	if ctx.Err() != nil {
		// Stopped mid-capture; the result is not observed.
		return
	}
	if err != nil {
		m.log.Warn("socket enumeration failed", "err", err)
		recs = nil
	}

	m.mu.Lock()
	if m.busy.Load() > 0 || gen != m.killGen {
		m.mu.Unlock()
		return
	}
	added, removed := snapshot.Diff(m.previous, recs)
	sorted := slices.Clone(recs)
	m.sort.Apply(sorted)
	m.previous = sorted
	m.polls++

	if len(added) == 0 && len(removed) == 0 {
		m.mu.Unlock()
		return
	}
	m.records = slices.Clone(sorted)
	m.updatedAt = time.Now()
	v := m.viewLocked()
	v.Added, v.Removed = added, removed
	m.publish(v)
	m.mu.Unlock()

	m.log.Debug("snapshot changed", "added", len(added), "removed", len(removed), "total", len(sorted))
}

// ResetStates clears the selection.
func (m *Monitor) ResetStates() {
	m.mu.Lock()
	clear(m.selection)
	m.publish(m.viewLocked())
	m.mu.Unlock()
}

// SetQuery changes the search query and republishes the filtered view.
func (m *Monitor) SetQuery(q string) {
	m.mu.Lock()
	if m.query == q {
		m.mu.Unlock()
		return
	}
	m.query = q
	m.publish(m.viewLocked())
	m.mu.Unlock()
}

// SetSort re-sorts the current records without waiting for a poll.
func (m *Monitor) SetSort(spec SortSpec) {
	m.mu.Lock()
	m.sort = slices.Clone(spec)
	m.sort.Apply(m.records)
	m.publish(m.viewLocked())
	m.mu.Unlock()
}

// Select adds key to the selection if a record with that key is shown.
func (m *Monitor) Select(key model.Key) bool {
	m.mu.Lock()
	if indexOf(m.records, key) < 0 {
		m.mu.Unlock()
		return false
	}
	m.selection[key] = true
	m.publish(m.viewLocked())
	m.mu.Unlock()
	return true
}

// Deselect removes key from the selection.
func (m *Monitor) Deselect(key model.Key) {
	m.mu.Lock()
	delete(m.selection, key)
	m.publish(m.viewLocked())
	m.mu.Unlock()
}

// ToggleSelected flips the selection of key and reports the new state.
func (m *Monitor) ToggleSelected(key model.Key) bool {
	m.mu.Lock()
	selected := false
	if m.selection[key] {
		delete(m.selection, key)
	} else if indexOf(m.records, key) >= 0 {
		m.selection[key] = true
		selected = true
	}
	m.publish(m.viewLocked())
	m.mu.Unlock()
	return selected
}

// SelectAll selects every record that passes the current filter.
func (m *Monitor) SelectAll() {
	m.mu.Lock()
	for _, r := range Filter(m.records, m.query) {
		m.selection[r.Key()] = true
	}
	m.publish(m.viewLocked())
	m.mu.Unlock()
}

// KillProcessByID removes the record from the view and the retained snapshot,
// then terminates its pid. ok is false when no record has that key.
func (m *Monitor) KillProcessByID(ctx context.Context, key model.Key) (res sys.ActionResult, ok bool) {
	m.busy.Add(1)
	defer m.busy.Add(-1)

	m.mu.Lock()
	i := indexOf(m.records, key)
	if i < 0 {
		m.mu.Unlock()
		return sys.ActionResult{}, false
	}
	pid := m.records[i].PID
	keys := map[model.Key]bool{key: true}
	m.removeLocked(keys)
	m.publish(m.viewLocked())
	m.mu.Unlock()

	m.log.Info("killing process", "pid", pid, "key", key.String())
	return m.killer.Terminate(ctx, []int{pid}), true
}

// KillSelectedProcesses removes every selected record, clears the selection
// and terminates all of their pids in one call. ok is false when nothing is
// selected.
func (m *Monitor) KillSelectedProcesses(ctx context.Context) (res sys.ActionResult, ok bool) {
	m.busy.Add(1)
	defer m.busy.Add(-1)

	m.mu.Lock()
	if len(m.selection) == 0 {
		m.mu.Unlock()
		return sys.ActionResult{}, false
	}
	var pids []int
	seen := make(map[int]bool)
	for _, r := range m.records {
		if m.selection[r.Key()] && !seen[r.PID] {
			seen[r.PID] = true
			pids = append(pids, r.PID)
		}
	}
	keys := maps.Clone(m.selection)
	m.removeLocked(keys)
	clear(m.selection)
	m.publish(m.viewLocked())
	m.mu.Unlock()

	if len(pids) == 0 {
		return sys.ActionResult{OK: true, Summary: "Nothing to kill"}, true
	}
	m.log.Info("killing selected processes", "pids", pids)
	return m.killer.Terminate(ctx, pids), true
}

func (m *Monitor) removeLocked(keys map[model.Key]bool) {
	drop := func(r model.Record) bool { return keys[r.Key()] }
	m.previous = slices.DeleteFunc(m.previous, drop)
	m.records = slices.DeleteFunc(m.records, drop)
	for k := range keys {
		delete(m.selection, k)
	}
	m.killGen++
}

func indexOf(recs []model.Record, key model.Key) int {
	return slices.IndexFunc(recs, func(r model.Record) bool { return r.Key() == key })
}
