package monitor

import (
	"slices"
	"time"

	"github.com/pratik-anurag/porter/internal/model"
)

// View is a copy of the monitor's observable state.
type View struct {
	Records   []model.Record
	Filtered  []model.Record
	Query     string
	Selection map[model.Key]bool
	Sort      SortSpec
	UpdatedAt time.Time
	Polls     uint64

	// Added and Removed are set only on views published by a poll.
	Added   []model.Record
	Removed []model.Record
}

// Selected reports whether key is in the selection.
func (v View) Selected(key model.Key) bool { return v.Selection[key] }

// SelectedCount counts selected keys.
func (v View) SelectedCount() int { return len(v.Selection) }

func (m *Monitor) viewLocked() View {
	recs := slices.Clone(m.records)
	sel := make(map[model.Key]bool, len(m.selection))
	for k := range m.selection {
		sel[k] = true
	}
	return View{
		Records:   recs,
		Filtered:  slices.Clone(Filter(recs, m.query)),
		Query:     m.query,
		Selection: sel,
		Sort:      slices.Clone(m.sort),
		UpdatedAt: m.updatedAt,
		Polls:     m.polls,
	}
}

// View returns the current state.
func (m *Monitor) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viewLocked()
}

// Records returns the sorted records of the last published snapshot.
func (m *Monitor) Records() []model.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

// Filtered returns Records restricted by the current query.
func (m *Monitor) Filtered() []model.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(Filter(m.records, m.query))
}

func (m *Monitor) Query() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

func (m *Monitor) Sort() SortSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sort)
}

// Selection returns the selected keys.
func (m *Monitor) Selection() []model.Key {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Key, 0, len(m.selection))
	for k := range m.selection {
		out = append(out, k)
	}
	return out
}

// Subscribe delivers a View after every state change. Only the latest view
// is buffered, so a slow reader skips intermediate states instead of
// stalling the poller. Call the returned func to unsubscribe.
func (m *Monitor) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subsMu.Unlock()

	var once bool
	return ch, func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if once {
			return
		}
		once = true
		delete(m.subs, id)
		close(ch)
	}
}

func (m *Monitor) publish(v View) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}
