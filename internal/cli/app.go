package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/pratik-anurag/porter/internal/config"
	"github.com/pratik-anurag/porter/internal/monitor"
	"github.com/pratik-anurag/porter/internal/proc"
	"github.com/pratik-anurag/porter/internal/sockets"
	"github.com/pratik-anurag/porter/internal/sys"
)

// newLister builds the socket enumerator; tests swap it for a fake.
var newLister = func(icons proc.IconResolver) monitor.Lister {
	return sockets.Lister{
		Path:   cfg.LsofPath,
		Runner: sys.ExecRunner{Timeout: cfg.CommandTimeout},
		Icons:  icons,
	}
}

// iconsFor resolves application paths only when they will be shown.
func iconsFor(show bool) proc.IconResolver {
	if show {
		return proc.NewProcessIcons()
	}
	return proc.NoIcons{}
}

// newKiller builds the termination controller; tests swap it for a fake.
var newKiller = func(c sys.Confirmer, r sys.Reporter, log *slog.Logger) monitor.Killer {
	return &sys.Terminator{
		Runner:    sys.ExecRunner{Timeout: cfg.CommandTimeout},
		KillPath:  cfg.KillPath,
		Elevation: cfg.ElevationMode(),
		Confirm:   c,
		Report:    r,
		Log:       log,
	}
}

func newMonitor(killer monitor.Killer, log *slog.Logger) *monitor.Monitor {
	return monitor.New(monitor.Config{
		Interval: cfg.PollInterval,
		Sort:     cfg.SortSpec(),
		Log:      log,
	}, newLister(proc.NewProcessIcons()), killer)
}

// fileLogger writes to cfg.LogFile so log lines do not tear the TUI.
// The returned closer must be called on exit.
func fileLogger() (*slog.Logger, io.Closer) {
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), io.NopCloser(nil)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar})), f
}

// reloader applies a hot-reloaded config to a running monitor. The sort is
// re-applied only when the file's sort changed, so a sort picked in the TUI
// survives unrelated edits.
func reloader(mon *monitor.Monitor, log *slog.Logger) func(*config.Config) {
	lastSort := cfg.Sort
	return func(next *config.Config) {
		mon.SetInterval(next.PollInterval)
		if next.Sort != lastSort {
			lastSort = next.Sort
			mon.SetSort(next.SortSpec())
		}
		if logLevel == "" {
			if lvl, err := config.ParseLevel(next.LogLevel); err == nil {
				levelVar.Set(lvl)
			}
		}
		log.Debug("applied config", "interval", next.PollInterval, "sort", next.Sort)
	}
}
