package sockets

import (
	"context"
	"fmt"

	"github.com/pratik-anurag/porter/internal/model"
	"github.com/pratik-anurag/porter/internal/proc"
	"github.com/pratik-anurag/porter/internal/sys"
)

// lsofArgs lists internet sockets without DNS or port-name resolution.
var lsofArgs = []string{"-i", "-n", "-P"}

// Lister captures one snapshot of open sockets through lsof.
type Lister struct {
	Path   string
	Runner sys.Runner
	Icons  proc.IconResolver
}

// Capture runs lsof and returns its raw output. lsof exits 1 when nothing
// matches, so a nonzero status with output is still a usable capture.
func (l Lister) Capture(ctx context.Context) (string, error) {
	res, err := l.Runner.Run(ctx, l.Path, lsofArgs...)
	if err != nil {
		return "", fmt.Errorf("exec %s: %w", l.Path, err)
	}
	if !res.OK() && len(res.Stdout) == 0 {
		return "", fmt.Errorf("%s exited with status %d", l.Path, res.ExitCode)
	}
	return string(res.Stdout), nil
}

// List captures and parses one snapshot.
func (l Lister) List(ctx context.Context) ([]model.Record, error) {
	raw, err := l.Capture(ctx)
	if err != nil {
		return nil, err
	}
	recs := ParseLsof(raw, l.Icons)
	if f, ok := l.Icons.(forgetter); ok {
		alive := make(map[int]bool, len(recs))
		for _, r := range recs {
			alive[r.PID] = true
		}
		f.Forget(alive)
	}
	return recs, nil
}

// forgetter is implemented by icon caches that can drop exited pids.
type forgetter interface {
	Forget(alive map[int]bool)
}
