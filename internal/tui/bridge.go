package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pratik-anurag/porter/internal/sys"
)

// Bridge lets the terminator, which runs off the UI goroutine, ask the
// operator for elevation and show failures inside the running program.
// It satisfies sys.Confirmer and sys.Reporter.
type Bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// Attach routes prompts to p. Until then every elevation is declined.
func (b *Bridge) Attach(p *tea.Program) {
	b.attach(p.Send)
}

func (b *Bridge) attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

// Detach stops routing; pending and later prompts are declined.
func (b *Bridge) Detach() {
	b.attach(nil)
}

func (b *Bridge) sender() func(tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.send
}

// ConfirmElevation blocks until the operator answers or ctx ends.
func (b *Bridge) ConfirmElevation(ctx context.Context, prompt string, pids []int) bool {
	send := b.sender()
	if send == nil {
		return false
	}
	reply := make(chan bool, 1)
	send(confirmMsg{prompt: prompt, pids: pids, reply: reply})
	select {
	case ok := <-reply:
		return ok
	case <-ctx.Done():
		return false
	}
}

func (b *Bridge) ReportFailure(res sys.ActionResult) {
	if send := b.sender(); send != nil {
		send(failureMsg(res))
	}
}

var (
	_ sys.Confirmer = (*Bridge)(nil)
	_ sys.Reporter  = (*Bridge)(nil)
)
