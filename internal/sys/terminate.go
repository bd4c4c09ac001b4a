package sys

import (
	"context"
	"io"
	"log/slog"
)

// Confirmer asks the operator whether to retry with admin privileges.
type Confirmer interface {
	ConfirmElevation(ctx context.Context, prompt string, pids []int) bool
}

// Reporter shows a terminal failure to the operator.
type Reporter interface {
	ReportFailure(res ActionResult)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string, pids []int) bool

func (f ConfirmFunc) ConfirmElevation(ctx context.Context, prompt string, pids []int) bool {
	return f(ctx, prompt, pids)
}

// ReportFunc adapts a function to Reporter.
type ReportFunc func(res ActionResult)

func (f ReportFunc) ReportFailure(res ActionResult) { f(res) }

// Terminator force-kills processes: a direct `kill -9`, then an elevated
// retry after confirmation, then a reported failure.
type Terminator struct {
	Runner    Runner
	KillPath  string
	Elevation Elevation
	Confirm   Confirmer
	Report    Reporter
	Log       *slog.Logger
}

func (t *Terminator) logger() *slog.Logger {
	if t.Log == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return t.Log
}

// Terminate never rolls anything back; callers have already hidden the rows.
func (t *Terminator) Terminate(ctx context.Context, pids []int) ActionResult {
	log := t.logger()
	if len(pids) == 0 {
		return ActionResult{OK: true, Summary: "Nothing to kill"}
	}
	// kill -9 -1 signals every process we may signal; never pass it through.
	valid := make([]int, 0, len(pids))
	for _, p := range pids {
		if p > 0 {
			valid = append(valid, p)
		} else {
			log.Warn("refusing to signal invalid pid", "pid", p)
		}
	}
	if len(valid) == 0 {
		res := failedResult(pids, TierDirect)
		t.report(res)
		return res
	}
	pids = valid
	killPath := t.KillPath
	if killPath == "" {
		killPath = DefaultKillPath
	}

	if t.run(ctx, "kill", killPath, killArgs(pids)) {
		return killedResult(pids, TierDirect)
	}

	name, args, ok := elevatedCommand(t.Elevation, killPath, pids)
	if !ok {
		res := failedResult(pids, TierDirect)
		t.report(res)
		return res
	}

	if t.Confirm == nil || !t.Confirm.ConfirmElevation(ctx, PermissionPrompt(pids), pids) {
		log.Info("elevated kill declined", "pids", pids)
		return ActionResult{
			Declined: true,
			Tier:     TierDirect,
			PIDs:     pids,
			Summary:  "Elevated kill cancelled",
		}
	}

	if t.run(ctx, "elevated kill", name, args) {
		return killedResult(pids, TierElevated)
	}

	res := failedResult(pids, TierElevated)
	t.report(res)
	return res
}

// run reports whether the program started and exited 0. Start failures and
// nonzero exits are treated alike.
func (t *Terminator) run(ctx context.Context, what, name string, args []string) bool {
	log := t.logger()
	res, err := t.Runner.Run(ctx, name, args...)
	if err != nil {
		log.Warn("failed to exec "+what, "cmd", name, "err", err)
		return false
	}
	if !res.OK() {
		log.Warn(what+" failed", "cmd", name, "exit_code", res.ExitCode, "stderr", string(res.Stderr))
		return false
	}
	return true
}

func (t *Terminator) report(res ActionResult) {
	t.logger().Error(res.Summary, "pids", res.PIDs, "tier", res.Tier.String())
	if t.Report != nil {
		t.Report.ReportFailure(res)
	}
}
