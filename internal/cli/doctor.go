package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/pratik-anurag/porter/internal/config"
	"github.com/pratik-anurag/porter/internal/platform"
	"github.com/pratik-anurag/porter/internal/sys"
)

var doctorJSON bool

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Print the report as JSON")
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that lsof and kill are available and show the effective config",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

type checkResult struct {
	Label  string `json:"label"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
	Fix    string `json:"fix,omitempty"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	checks := doctorChecks()
	if err := writeChecks(cmd.OutOrStdout(), checks, doctorJSON); err != nil {
		return err
	}
	for _, c := range checks {
		if !c.OK && c.Label == "lsof" {
			return &exitError{code: exitToolchain}
		}
	}
	return nil
}

func doctorChecks() []checkResult {
	killPath := cfg.KillPath
	if killPath == "" {
		killPath = sys.DefaultKillPath
	}
	tc := platform.Inspect(platform.ResolveLsof(cfg.LsofPath), killPath)

	checks := []checkResult{{
		Label:  "lsof",
		OK:     tc.Found,
		Detail: tc.LsofPath,
		Fix:    tc.Hint,
	}}

	_, killErr := os.Stat(tc.KillPath)
	kill := checkResult{Label: "kill", OK: killErr == nil, Detail: tc.KillPath}
	if killErr != nil {
		kill.Fix = "set kill_path in the config file"
	}
	checks = append(checks, kill)

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	detail := path
	if _, err := os.Stat(path); err != nil {
		detail += " (not found, using defaults)"
	}
	checks = append(checks,
		checkResult{Label: "config", OK: true, Detail: detail},
		checkResult{Label: "elevation", OK: true, Detail: fmt.Sprintf("%s on %s", cfg.ElevationMode(), runtime.GOOS)},
		checkResult{Label: "poll interval", OK: true, Detail: cfg.PollInterval.String()},
	)
	return checks
}

func writeChecks(w io.Writer, checks []checkResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(checks)
	}
	for _, c := range checks {
		mark := "ok"
		if !c.OK {
			mark = "!!"
		}
		fmt.Fprintf(w, "[%s] %-14s %s\n", mark, c.Label, c.Detail)
		if c.Fix != "" {
			fmt.Fprintf(w, "     fix: %s\n", c.Fix)
		}
	}
	return nil
}
