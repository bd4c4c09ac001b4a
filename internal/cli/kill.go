package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-anurag/porter/internal/render"
	"github.com/pratik-anurag/porter/internal/sys"
)

var killYes bool

func init() {
	rootCmd.AddCommand(killCmd)
	killCmd.Flags().BoolVarP(&killYes, "yes", "y", false, "Retry with admin privileges without asking")
}

var killCmd = &cobra.Command{
	Use:   "kill <pid|:port>...",
	Short: "Force-kill processes by pid or by the port they hold",
	Long: "Sends SIGKILL to each target. When that is not permitted porter asks\n" +
		"to retry with admin privileges (osascript on macOS, pkexec or sudo on Linux).\n" +
		"A :port target kills every process that has that port open.",
	Example: "  porter kill 8123\n  porter kill :5432 :6379 --yes",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runKill,
}

func runKill(cmd *cobra.Command, args []string) error {
	pids, ports, err := parseTargets(args)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	if len(ports) > 0 {
		if err := ensureLsof(cmd); err != nil {
			return err
		}
		owners, err := portOwners(cmd.Context(), ports)
		if err != nil {
			return err
		}
		for _, p := range owners {
			if !slices.Contains(pids, p) {
				pids = append(pids, p)
			}
		}
	}
	if len(pids) == 0 {
		return fmt.Errorf("no process holds port %s", joinInts(ports, ", "))
	}

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	confirmer := sys.ConfirmFunc(func(ctx context.Context, prompt string, pids []int) bool {
		if killYes {
			return true
		}
		if !interactive() {
			fmt.Fprintln(errOut, prompt+" Re-run with --yes to escalate.")
			return false
		}
		fmt.Fprintln(errOut, prompt)
		return confirm(cmd.InOrStdin(), errOut, "Retry with admin privileges?")
	})
	reporter := sys.ReportFunc(func(res sys.ActionResult) {
		fmt.Fprint(errOut, render.ActionResult(res))
	})

	res := newKiller(confirmer, reporter, logger).Terminate(cmd.Context(), pids)
	switch {
	case res.OK:
		fmt.Fprint(out, render.ActionResult(res))
		return nil
	case res.Declined:
		return &exitError{code: exitFailure, err: errors.New("kill cancelled")}
	default:
		// already shown by the reporter
		return &exitError{code: exitFailure}
	}
}

// parseTargets splits arguments into pids and ":port" targets.
func parseTargets(args []string) (pids, ports []int, err error) {
	for _, a := range args {
		if p, ok := strings.CutPrefix(a, ":"); ok {
			port, err := strconv.Atoi(p)
			if err != nil || port < 0 || port > 65535 {
				return nil, nil, fmt.Errorf("invalid port %q", a)
			}
			ports = append(ports, port)
			continue
		}
		pid, err := strconv.Atoi(a)
		if err != nil || pid <= 0 {
			return nil, nil, fmt.Errorf("invalid pid %q (use :PORT to target a port)", a)
		}
		if !slices.Contains(pids, pid) {
			pids = append(pids, pid)
		}
	}
	return pids, ports, nil
}

// portOwners returns the distinct pids that hold any of ports.
func portOwners(ctx context.Context, ports []int) ([]int, error) {
	recs, err := newLister(iconsFor(false)).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sockets: %w", err)
	}
	var pids []int
	for _, r := range recs {
		if r.PID > 0 && slices.Contains(ports, r.Port) && !slices.Contains(pids, r.PID) {
			pids = append(pids, r.PID)
		}
	}
	return pids, nil
}

func joinInts(v []int, sep string) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, sep)
}
