package proc

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/process"
)

// IconResolver returns an opaque icon handle for the application that owns
// pid, or "" when none can be resolved. Lookups never fail loudly.
type IconResolver interface {
	Icon(pid int) string
}

// NoIcons resolves nothing.
type NoIcons struct{}

func (NoIcons) Icon(int) string { return "" }

// ProcessIcons looks the pid up in the running-process table and uses the
// enclosing .app bundle (macOS) or the executable path as the handle.
type ProcessIcons struct {
	mu    sync.Mutex
	cache map[int]string
}

func NewProcessIcons() *ProcessIcons {
	return &ProcessIcons{cache: make(map[int]string)}
}

func (r *ProcessIcons) Icon(pid int) string {
	if pid <= 0 {
		return ""
	}
	r.mu.Lock()
	icon, ok := r.cache[pid]
	r.mu.Unlock()
	if ok {
		return icon
	}

	icon = lookupIcon(pid)

	r.mu.Lock()
	r.cache[pid] = icon
	r.mu.Unlock()
	return icon
}

// Forget drops cached handles for pids that are no longer present.
func (r *ProcessIcons) Forget(alive map[int]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for pid := range r.cache {
		if !alive[pid] {
			delete(r.cache, pid)
		}
	}
}

func lookupIcon(pid int) string {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return ""
	}
	exe, err := p.Exe()
	if err != nil || exe == "" {
		return ""
	}
	if bundle := appBundle(exe); bundle != "" {
		return bundle
	}
	return exe
}

// appBundle returns the outermost "*.app" directory containing exe.
func appBundle(exe string) string {
	exe = filepath.ToSlash(exe)
	i := strings.Index(exe, ".app/")
	if i < 0 {
		return ""
	}
	return filepath.FromSlash(exe[:i+len(".app")])
}
