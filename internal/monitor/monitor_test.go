package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pratik-anurag/porter/internal/model"
	"github.com/pratik-anurag/porter/internal/sys"
)

// fakeLister returns the configured snapshot on every call.
type fakeLister struct {
	mu    sync.Mutex
	recs  []model.Record
	err   error
	calls int
	hook  func()
}

func (l *fakeLister) List(context.Context) ([]model.Record, error) {
	l.mu.Lock()
	l.calls++
	recs, err, hook := l.recs, l.err, l.hook
	l.mu.Unlock()
	if hook != nil {
		hook()
	}
	return recs, err
}

func (l *fakeLister) set(recs ...model.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs = recs
	l.err = nil
}

func (l *fakeLister) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// fakeKiller records pids and reports the configured outcome.
type fakeKiller struct {
	mu     sync.Mutex
	calls  [][]int
	ok     bool
	during func()
}

func (k *fakeKiller) Terminate(_ context.Context, pids []int) sys.ActionResult {
	k.mu.Lock()
	k.calls = append(k.calls, pids)
	during := k.during
	k.mu.Unlock()
	if during != nil {
		during()
	}
	return sys.ActionResult{OK: k.ok, PIDs: pids}
}

var (
	safari = model.Record{Name: "Safari", User: "me", PID: 1, Port: 7943, Protocol: model.TCP, IPVersion: model.IPv4, State: model.StateListen, FD: "1"}
	mail   = model.Record{Name: "Mail", User: "me", PID: 2, Port: 5678, Protocol: model.TCP, IPVersion: model.IPv6, FD: "2"}
	sshd   = model.Record{Name: "sshd", User: "root", PID: 3, Port: 22, Protocol: model.TCP, IPVersion: model.IPv4, State: model.StateListen, FD: "3u"}
)

func newTestMonitor(l *fakeLister, k *fakeKiller) *Monitor {
	return New(Config{Interval: 10 * time.Millisecond}, l, k)
}

func names(recs []model.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Name)
	}
	return out
}

func TestPollPublishesSortedRecords(t *testing.T) {
	l := &fakeLister{}
	l.set(safari, mail, sshd)
	m := newTestMonitor(l, &fakeKiller{})

	views, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.Poll(context.Background())
	got := names(m.Records())
	if len(got) != 3 || got[0] != "Mail" || got[1] != "Safari" || got[2] != "sshd" {
		t.Fatalf("expected case-sensitive name order, got %v", got)
	}

	select {
	case v := <-views:
		if len(v.Added) != 3 || len(v.Removed) != 0 {
			t.Fatalf("expected 3 additions, got %d/%d", len(v.Added), len(v.Removed))
		}
	default:
		t.Fatalf("expected a published view")
	}
}

func TestPollSkipsPublishWhenUnchanged(t *testing.T) {
	l := &fakeLister{}
	l.set(safari, mail)
	m := newTestMonitor(l, &fakeKiller{})
	m.Poll(context.Background())

	views, unsubscribe := m.Subscribe()
	defer unsubscribe()

	withIcon := safari
	withIcon.Icon = "/Applications/Safari.app"
	l.set(mail, withIcon)
	m.Poll(context.Background())

	select {
	case v := <-views:
		t.Fatalf("unexpected publish for unchanged snapshot: %+v", v)
	default:
	}
	if m.View().Polls != 2 {
		t.Fatalf("expected both polls to be counted")
	}

	l.set(mail)
	m.Poll(context.Background())
	select {
	case v := <-views:
		if len(v.Removed) != 1 || v.Removed[0].Name != "Safari" {
			t.Fatalf("expected Safari removed, got %+v", v.Removed)
		}
	default:
		t.Fatalf("expected publish after removal")
	}
}

func TestPollEnumerationFailureIsEmptyCapture(t *testing.T) {
	l := &fakeLister{}
	l.set(safari)
	m := newTestMonitor(l, &fakeKiller{})
	m.Poll(context.Background())

	l.mu.Lock()
	l.err = errors.New("lsof: exit 1")
	l.mu.Unlock()
	m.Poll(context.Background())
	if len(m.Records()) != 0 {
		t.Fatalf("expected empty view after failed enumeration, got %v", names(m.Records()))
	}

	l.set(safari)
	m.Poll(context.Background())
	if len(m.Records()) != 1 {
		t.Fatalf("expected recovery on next successful poll")
	}
}

func TestFilter(t *testing.T) {
	l := &fakeLister{}
	l.set(safari, mail)
	m := newTestMonitor(l, &fakeKiller{})
	m.Poll(context.Background())

	cases := []struct {
		query string
		want  []string
	}{
		{query: "", want: []string{"Mail", "Safari"}},
		{query: "safari", want: []string{"Safari"}},
		{query: "  SAFARI ", want: []string{"Safari"}},
		{query: "5678", want: []string{"Mail"}},
		{query: "random", want: nil},
	}
	for _, c := range cases {
		m.SetQuery(c.query)
		got := names(m.Filtered())
		if len(got) != len(c.want) {
			t.Fatalf("query %q: expected %v, got %v", c.query, c.want, got)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("query %q: expected %v, got %v", c.query, c.want, got)
			}
		}
	}
	if len(m.Records()) != 2 {
		t.Fatalf("filtering must not change records")
	}
}

func TestSetSortResortsImmediately(t *testing.T) {
	l := &fakeLister{}
	l.set(safari, mail, sshd)
	m := newTestMonitor(l, &fakeKiller{})
	m.Poll(context.Background())
	calls := l.callCount()

	m.SetSort(SortSpec{{Field: FieldPort, Descending: true}})
	got := m.Records()
	if got[0].Port != 7943 || got[1].Port != 5678 || got[2].Port != 22 {
		t.Fatalf("expected ports descending, got %+v", got)
	}
	if l.callCount() != calls {
		t.Fatalf("sorting must not poll")
	}
}

func TestKillSelectedRemovesRowsEvenOnFailure(t *testing.T) {
	l := &fakeLister{}
	l.set(safari, mail, sshd)
	k := &fakeKiller{ok: false}
	m := newTestMonitor(l, k)
	m.Poll(context.Background())

	if !m.Select(safari.Key()) || !m.Select(sshd.Key()) {
		t.Fatalf("expected selection to succeed")
	}
	res, ok := m.KillSelectedProcesses(context.Background())
	if !ok || res.OK {
		t.Fatalf("expected attempted kill with failure, got ok=%v res=%+v", ok, res)
	}

	got := names(m.Records())
	if len(got) != 1 || got[0] != "Mail" {
		t.Fatalf("expected only Mail to remain, got %v", got)
	}
	if len(m.Selection()) != 0 {
		t.Fatalf("expected selection cleared")
	}
	if len(k.calls) != 1 || len(k.calls[0]) != 2 {
		t.Fatalf("expected a single call with both pids, got %v", k.calls)
	}
}

func TestKilledRecordReappearsWhenStillOpen(t *testing.T) {
	l := &fakeLister{}
	l.set(safari, mail)
	m := newTestMonitor(l, &fakeKiller{ok: false})
	m.Poll(context.Background())

	if _, ok := m.KillProcessByID(context.Background(), safari.Key()); !ok {
		t.Fatalf("expected kill of known key")
	}
	if len(m.Records()) != 1 {
		t.Fatalf("expected optimistic removal")
	}

	m.Poll(context.Background())
	if len(m.Records()) != 2 {
		t.Fatalf("expected the next poll to re-sync ground truth, got %v", names(m.Records()))
	}
}

func TestKillProcessByIDUnknownKey(t *testing.T) {
	l := &fakeLister{}
	l.set(safari)
	k := &fakeKiller{}
	m := newTestMonitor(l, k)
	m.Poll(context.Background())

	if _, ok := m.KillProcessByID(context.Background(), mail.Key()); ok {
		t.Fatalf("expected no-op for unknown key")
	}
	if len(k.calls) != 0 {
		t.Fatalf("killer must not be called")
	}
}

func TestKillSelectedNoopWithoutSelection(t *testing.T) {
	k := &fakeKiller{}
	m := newTestMonitor(&fakeLister{}, k)
	if _, ok := m.KillSelectedProcesses(context.Background()); ok {
		t.Fatalf("expected no-op")
	}
	if len(k.calls) != 0 {
		t.Fatalf("killer must not be called")
	}
}

func TestPollSkippedWhileKilling(t *testing.T) {
	l := &fakeLister{}
	l.set(safari, mail)
	k := &fakeKiller{ok: true}
	m := newTestMonitor(l, k)
	m.Poll(context.Background())
	before := l.callCount()

	k.during = func() { m.Poll(context.Background()) }
	if _, ok := m.KillProcessByID(context.Background(), mail.Key()); !ok {
		t.Fatalf("expected kill")
	}
	if l.callCount() != before {
		t.Fatalf("poll during kill must be skipped")
	}
	if m.busy.Load() != 0 {
		t.Fatalf("busy flag must be cleared after kill")
	}
}

func TestCaptureTakenBeforeKillIsDropped(t *testing.T) {
	l := &fakeLister{}
	l.set(safari, mail)
	m := newTestMonitor(l, &fakeKiller{ok: true})
	m.Poll(context.Background())

	l.hook = func() {
		l.hook = nil
		m.KillProcessByID(context.Background(), mail.Key())
	}
	m.Poll(context.Background())
	if got := names(m.Records()); len(got) != 1 || got[0] != "Safari" {
		t.Fatalf("stale capture must not resurrect the killed row, got %v", got)
	}
}

func TestSelectionHelpers(t *testing.T) {
	l := &fakeLister{}
	l.set(safari, mail, sshd)
	m := newTestMonitor(l, &fakeKiller{})
	m.Poll(context.Background())

	if m.Select(model.Key{PID: 99}) {
		t.Fatalf("unknown keys cannot be selected")
	}
	if !m.ToggleSelected(mail.Key()) || m.ToggleSelected(mail.Key()) {
		t.Fatalf("toggle should select then deselect")
	}

	m.SetQuery("s")
	m.SelectAll()
	if len(m.Selection()) != 2 {
		t.Fatalf("expected Safari and sshd selected, got %v", m.Selection())
	}
	m.Deselect(sshd.Key())
	if len(m.Selection()) != 1 {
		t.Fatalf("expected one selected")
	}
	m.ResetStates()
	if len(m.Selection()) != 0 {
		t.Fatalf("expected selection cleared")
	}
}

func TestStartStopPolling(t *testing.T) {
	l := &fakeLister{}
	l.set(safari)
	m := newTestMonitor(l, &fakeKiller{})

	views, unsubscribe := m.Subscribe()
	defer unsubscribe()

	m.StartPolling()
	first := m.done
	m.StartPolling()
	if m.done != first {
		t.Fatalf("second start must not arm another timer")
	}
	if !m.Polling() {
		t.Fatalf("expected polling")
	}

	select {
	case <-views:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the immediate poll to publish")
	}

	time.Sleep(55 * time.Millisecond)
	m.SetQuery("safari")
	m.StopPolling()
	m.Wait()
	m.StopPolling()

	calls := l.callCount()
	if calls < 2 {
		t.Fatalf("expected the ticker to poll after the immediate poll, got %d", calls)
	}
	if m.Polling() {
		t.Fatalf("expected polling stopped")
	}
	if m.Query() != "" {
		t.Fatalf("stop must clear the query")
	}

	time.Sleep(30 * time.Millisecond)
	if l.callCount() != calls {
		t.Fatalf("no polls expected after stop")
	}
}

func TestSetIntervalWhilePolling(t *testing.T) {
	l := &fakeLister{}
	m := newTestMonitor(l, &fakeKiller{})
	m.SetInterval(time.Hour)
	m.StartPolling()
	m.SetInterval(5 * time.Millisecond)

	deadline := time.After(2 * time.Second)
	for l.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected re-armed ticker to poll, got %d calls", l.callCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
	m.StopPolling()
	m.Wait()
}

func TestSubscribeCoalesces(t *testing.T) {
	m := newTestMonitor(&fakeLister{}, &fakeKiller{})
	views, unsubscribe := m.Subscribe()
	m.SetQuery("a")
	m.SetQuery("b")
	m.SetQuery("c")

	v := <-views
	if v.Query != "c" {
		t.Fatalf("expected the latest view, got query %q", v.Query)
	}
	unsubscribe()
	unsubscribe()
	if _, open := <-views; open {
		t.Fatalf("expected channel closed after unsubscribe")
	}
}

// blockingLister returns recs until block is set, then holds every capture
// open until its context ends, counting overlapping calls.
type blockingLister struct {
	mu          sync.Mutex
	recs        []model.Record
	block       bool
	calls       int
	inFlight    int
	maxInFlight int
	entered     chan struct{}
}

func newBlockingLister(recs ...model.Record) *blockingLister {
	return &blockingLister{recs: recs, entered: make(chan struct{}, 16)}
}

func (l *blockingLister) List(ctx context.Context) ([]model.Record, error) {
	l.mu.Lock()
	l.calls++
	if !l.block {
		recs := l.recs
		l.mu.Unlock()
		return recs, nil
	}
	l.inFlight++
	l.maxInFlight = max(l.maxInFlight, l.inFlight)
	l.mu.Unlock()
	l.entered <- struct{}{}

	<-ctx.Done()

	l.mu.Lock()
	l.inFlight--
	l.mu.Unlock()
	return nil, ctx.Err()
}

func (l *blockingLister) setBlock(b bool) {
	l.mu.Lock()
	l.block = b
	l.mu.Unlock()
}

func (l *blockingLister) waitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-l.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a capture to start")
	}
}

func TestStopMidCaptureKeepsView(t *testing.T) {
	l := newBlockingLister(safari, mail)
	m := newTestMonitor(&fakeLister{}, &fakeKiller{})
	m.lister = l
	m.Poll(context.Background())
	if len(m.Records()) != 2 {
		t.Fatalf("expected 2 records, got %d", len(m.Records()))
	}

	views, unsubscribe := m.Subscribe()
	defer unsubscribe()

	l.setBlock(true)
	m.StartPolling()
	l.waitEntered(t)
	m.StopPolling()
	m.Wait()

	if len(m.Records()) != 2 {
		t.Fatalf("cancelled capture must not empty the view, got %v", names(m.Records()))
	}
	// The only publish allowed is the query reset from StopPolling, and it
	// still carries the old records.
	select {
	case v := <-views:
		if len(v.Records) != 2 {
			t.Fatalf("published view lost records: %v", names(v.Records))
		}
	default:
	}

	l.mu.Lock()
	l.block = false
	l.recs = []model.Record{safari}
	l.mu.Unlock()
	m.Poll(context.Background())
	if len(m.Records()) != 1 {
		t.Fatalf("a later poll must still diff against the kept snapshot, got %v", names(m.Records()))
	}
}

func TestRestartWaitsForPreviousLoop(t *testing.T) {
	l := newBlockingLister()
	l.setBlock(true)
	m := newTestMonitor(&fakeLister{}, &fakeKiller{})
	m.lister = l

	m.StartPolling()
	l.waitEntered(t)
	m.StopPolling()
	m.StartPolling()

	// The restarted loop captures only after the old capture unwound.
	l.waitEntered(t)
	m.StopPolling()
	m.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.maxInFlight != 1 {
		t.Fatalf("expected at most one capture in flight, got %d", l.maxInFlight)
	}
	if l.calls < 2 {
		t.Fatalf("expected the restarted loop to poll, got %d calls", l.calls)
	}
}
