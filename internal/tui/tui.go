// Package tui is the interactive terminal view over a running monitor.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pratik-anurag/porter/internal/model"
	"github.com/pratik-anurag/porter/internal/monitor"
	"github.com/pratik-anurag/porter/internal/sys"
)

// Controller is the part of the monitor the TUI drives.
type Controller interface {
	View() monitor.View
	Subscribe() (<-chan monitor.View, func())
	SetQuery(q string)
	SetSort(spec monitor.SortSpec)
	ToggleSelected(key model.Key) bool
	SelectAll()
	ResetStates()
	KillProcessByID(ctx context.Context, key model.Key) (sys.ActionResult, bool)
	KillSelectedProcesses(ctx context.Context) (sys.ActionResult, bool)
}

type (
	viewMsg    monitor.View
	tickMsg    time.Time
	failureMsg sys.ActionResult
	killMsg    struct {
		res sys.ActionResult
		ok  bool
	}
	confirmMsg struct {
		prompt string
		pids   []int
		reply  chan<- bool
	}
)

// chromeHeight is every line View draws besides the table body.
const chromeHeight = 10

var columns = []struct {
	title string
	width int
	field monitor.Field
}{
	{"Process", 22, monitor.FieldName},
	{"Port", 7, monitor.FieldPort},
	{"Proto", 6, monitor.FieldProtocol},
	{"PID", 8, monitor.FieldPID},
	{"IP", 5, monitor.FieldIPVersion},
	{"State", 13, monitor.FieldState},
	{"User", 12, monitor.FieldUser},
	{"FD", 6, monitor.FieldFD},
}

type tuiModel struct {
	ctx     context.Context
	mon     Controller
	updates <-chan monitor.View

	table       table.Model
	filterInput textinput.Model
	filtering   bool

	view monitor.View
	rows []model.Record

	sortColumn int
	sortDesc   bool

	confirm *confirmMsg
	message string
	failed  bool
	killing int

	width  int
	height int
}

func newModel(ctx context.Context, mon Controller, updates <-chan monitor.View) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "name or port"
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 30

	m := tuiModel{
		ctx:         ctx,
		mon:         mon,
		updates:     updates,
		filterInput: ti,
		height:      24,
	}
	m.view = mon.View()
	m.syncSort()
	m.filterInput.SetValue(m.view.Query)
	m.initTable()
	m.updateRows()
	return m
}

// syncSort points the header arrow at the view's primary sort key and
// reports whether it moved.
func (m *tuiModel) syncSort() bool {
	if len(m.view.Sort) == 0 {
		return false
	}
	primary := m.view.Sort[0]
	for i, c := range columns {
		if c.field == primary.Field {
			moved := i != m.sortColumn || primary.Descending != m.sortDesc
			m.sortColumn, m.sortDesc = i, primary.Descending
			return moved
		}
	}
	return false
}

func (m *tuiModel) initTable() {
	cols := make([]table.Column, 0, len(columns)+1)
	cols = append(cols, table.Column{Title: " ", Width: 1})
	for i, c := range columns {
		title := c.title
		if i == m.sortColumn {
			if m.sortDesc {
				title += " ↓"
			} else {
				title += " ↑"
			}
		}
		cols = append(cols, table.Column{Title: title, Width: c.width})
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(max(m.height-chromeHeight, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(s)

	m.table = t
}

func (m *tuiModel) updateRows() {
	m.rows = m.view.Filtered
	rows := make([]table.Row, 0, len(m.rows))
	for _, r := range m.rows {
		mark := " "
		if m.view.Selected(r.Key()) {
			mark = "●"
		}
		pid := "-"
		if r.PID > 0 {
			pid = strconv.Itoa(r.PID)
		}
		rows = append(rows, table.Row{
			mark,
			r.Name,
			strconv.Itoa(r.Port),
			string(r.Protocol),
			pid,
			strings.TrimPrefix(string(r.IPVersion), "IP"),
			string(r.State),
			r.User,
			r.FD,
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

// current is the record under the cursor.
func (m tuiModel) current() (model.Record, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.rows) {
		return model.Record{}, false
	}
	return m.rows[c], true
}

func (m *tuiModel) refresh() {
	m.view = m.mon.View()
	m.updateRows()
}

func (m *tuiModel) applySort() {
	m.mon.SetSort(monitor.SortSpec{{Field: columns[m.sortColumn].field, Descending: m.sortDesc}})
	cursor := m.table.Cursor()
	m.initTable()
	m.refresh()
	m.table.SetCursor(cursor)
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(waitForView(m.updates), tick())
}

func waitForView(ch <-chan monitor.View) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return viewMsg(v)
	}
}

// tick keeps the "updated ... ago" line moving between polls.
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) killSelected() tea.Cmd {
	ctx, mon := m.ctx, m.mon
	return func() tea.Msg {
		res, ok := mon.KillSelectedProcesses(ctx)
		return killMsg{res: res, ok: ok}
	}
}

func (m tuiModel) killOne(key model.Key) tea.Cmd {
	ctx, mon := m.ctx, m.mon
	return func() tea.Msg {
		res, ok := mon.KillProcessByID(ctx, key)
		return killMsg{res: res, ok: ok}
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case viewMsg:
		m.view = monitor.View(msg)
		if m.syncSort() {
			cursor := m.table.Cursor()
			m.initTable()
			m.updateRows()
			m.table.SetCursor(cursor)
		} else {
			m.updateRows()
		}
		return m, waitForView(m.updates)
	case tickMsg:
		return m, tick()
	case confirmMsg:
		if m.confirm != nil {
			m.confirm.reply <- false
		}
		m.confirm = &msg
		return m, nil
	case failureMsg:
		m.message = strings.TrimSpace(msg.Summary + ". " + msg.Details)
		m.failed = true
		return m, nil
	case killMsg:
		m.killing--
		switch {
		case !msg.ok:
			m.message, m.failed = "Nothing to kill", false
		case msg.res.OK:
			m.message, m.failed = msg.res.Summary, false
		}
		m.refresh()
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(m.height-chromeHeight, 3))
		return m, nil
	}

	if m.confirm != nil {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "y", "Y":
				m.confirm.reply <- true
				m.confirm = nil
			case "n", "N", "esc", "q":
				m.confirm.reply <- false
				m.confirm = nil
			}
		}
		return m, nil
	}

	if m.filtering {
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "enter":
				m.filtering = false
				m.filterInput.Blur()
				return m, nil
			case "esc":
				m.filtering = false
				m.filterInput.Blur()
				m.filterInput.SetValue("")
				m.mon.SetQuery("")
				m.refresh()
				return m, nil
			}
		}
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.mon.SetQuery(m.filterInput.Value())
		m.refresh()
		return m, cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "/":
			m.filtering = true
			m.filterInput.Focus()
			return m, textinput.Blink
		case " ":
			if r, ok := m.current(); ok {
				m.mon.ToggleSelected(r.Key())
				m.refresh()
			}
			return m, nil
		case "a":
			m.mon.SelectAll()
			m.refresh()
			return m, nil
		case "c":
			m.mon.ResetStates()
			m.refresh()
			return m, nil
		case "s":
			m.sortColumn = (m.sortColumn + 1) % len(columns)
			m.sortDesc = false
			m.applySort()
			return m, nil
		case "r":
			m.sortDesc = !m.sortDesc
			m.applySort()
			return m, nil
		case "x":
			m.message, m.failed = "", false
			if m.view.SelectedCount() > 0 {
				m.killing++
				return m, m.killSelected()
			}
			if r, ok := m.current(); ok {
				m.killing++
				return m, m.killOne(r.Key())
			}
			return m, nil
		}
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("porter"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d sockets", len(m.view.Records))))
	if n := len(m.rows); n != len(m.view.Records) {
		b.WriteString(dimStyle.Render(fmt.Sprintf(", %d shown", n)))
	}
	if n := m.view.SelectedCount(); n > 0 {
		b.WriteString(infoStyle.Render(fmt.Sprintf(", %d selected", n)))
	}
	b.WriteString("\n")

	if m.filtering || m.filterInput.Value() != "" {
		b.WriteString(m.filterInput.View())
	}
	b.WriteString("\n")

	b.WriteString(baseStyle.Render(m.table.View()))
	b.WriteString("\n")

	if r, ok := m.current(); ok {
		b.WriteString(detail(r))
	}
	b.WriteString("\n")

	b.WriteString(dimStyle.Render(m.status()))
	b.WriteString("\n")

	switch {
	case m.confirm != nil:
		b.WriteString(promptStyle.Render(m.confirm.prompt + "\nRetry with admin privileges? [y/N]"))
	case m.message != "" && m.failed:
		b.WriteString(errorStyle.Render(m.message))
	case m.message != "":
		b.WriteString(infoStyle.Render(m.message))
	case m.killing > 0:
		b.WriteString(dimStyle.Render("killing..."))
	}
	b.WriteString("\n")

	b.WriteString(dimStyle.Render("/ filter • space select • a all • c clear • x kill • s sort • r reverse • q quit"))
	return b.String()
}

func (m tuiModel) status() string {
	updated := "waiting for first snapshot"
	if !m.view.UpdatedAt.IsZero() {
		updated = "updated " + humanize.Time(m.view.UpdatedAt)
	}
	return fmt.Sprintf("%s • sort %s", updated, m.view.Sort)
}

func detail(r model.Record) string {
	parts := []string{titleStyle.Render(r.Name), fmt.Sprintf("%s :%d", r.Protocol, r.Port)}
	if s := badge(r.State); s != "" {
		parts = append(parts, s)
	}
	if r.Icon != "" {
		parts = append(parts, dimStyle.Render(r.Icon))
	}
	return strings.Join(parts, " ")
}

// Run shows the TUI until the operator quits or ctx ends. bridge may be nil;
// when set it is attached to the program for elevation prompts.
func Run(ctx context.Context, mon Controller, bridge *Bridge) error {
	updates, unsubscribe := mon.Subscribe()
	defer unsubscribe()

	p := tea.NewProgram(newModel(ctx, mon, updates), tea.WithAltScreen(), tea.WithContext(ctx))
	if bridge != nil {
		bridge.Attach(p)
		defer bridge.Detach()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
