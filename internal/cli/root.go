package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pratik-anurag/porter/internal/config"
	"github.com/pratik-anurag/porter/internal/platform"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitToolchain = 69 // EX_UNAVAILABLE
)

// needsLsof marks commands that cannot run without the enumeration tool.
const needsLsof = "needs-lsof"

var (
	configPath string
	logLevel   string
	colorMode  string

	cfg      = config.Default()
	levelVar = new(slog.LevelVar)
	logger   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))
)

var rootCmd = &cobra.Command{
	Use:   "porter",
	Short: "Watch local ports and kill the processes that hold them",
	Long: "porter polls `lsof -i -n -P`, shows every open TCP/UDP socket with its owning process,\n" +
		"and force-kills selected processes, asking for admin privileges when needed.\n" +
		"Without a subcommand it runs `porter watch`.",
	Annotations:       map[string]string{needsLsof: "true"},
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runWatch,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error), overrides config")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "", "Colour output (auto|always|never), overrides config")
	rootCmd.Flags().BoolVar(&watchPlain, "plain", false, "Stream added/removed sockets instead of the interactive view")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
		return &exitError{code: exitUsage, err: err}
	})
}

// exitError carries a process exit code. A nil err exits quietly.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

// Execute runs the root command and exits with its status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	var ee *exitError
	if err != nil && !(errors.As(err, &ee) && ee.err == nil) {
		fmt.Fprintf(os.Stderr, "porter: %v\n", err)
	}
	os.Exit(exitCode(err))
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		loaded.LogLevel = logLevel
	}
	if colorMode != "" {
		loaded.Color = colorMode
	}
	if err := loaded.Validate(); err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	cfg = loaded

	lvl, _ := config.ParseLevel(cfg.LogLevel)
	levelVar.Set(lvl)
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: levelVar}))

	if cmd.Annotations[needsLsof] == "true" {
		return ensureLsof(cmd)
	}
	return nil
}

// ensureLsof resolves the enumeration tool or fails with exitToolchain,
// offering the platform installer on an interactive terminal.
func ensureLsof(cmd *cobra.Command) error {
	path := platform.ResolveLsof(cfg.LsofPath)
	if err := platform.CheckLsof(path); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), platform.InstallHint())
		if inst := platform.Installer(); inst != nil && interactive() {
			if confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), "Open the installer now?") {
				inst.Stdout, inst.Stderr = cmd.OutOrStdout(), cmd.ErrOrStderr()
				if err := inst.Start(); err != nil {
					logger.Warn("failed to start installer", "err", err)
				}
			}
		}
		return &exitError{code: exitToolchain, err: err}
	}
	cfg.LsofPath = path
	logger.Debug("using lsof", "path", path)
	return nil
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// confirm asks a y/N question; anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
