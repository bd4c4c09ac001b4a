package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pratik-anurag/porter/internal/config"
	"github.com/pratik-anurag/porter/internal/monitor"
	"github.com/pratik-anurag/porter/internal/render"
	"github.com/pratik-anurag/porter/internal/tui"
)

var watchPlain bool

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchPlain, "plain", false, "Stream added/removed sockets instead of the interactive view")
}

var watchCmd = &cobra.Command{
	Use:         "watch",
	Short:       "Monitor open ports interactively (default command)",
	Long:        "Polls the socket table every poll_interval. The interactive view supports filtering,\nsorting, multi-select and killing; --plain prints one line per added or removed socket.",
	Annotations: map[string]string{needsLsof: "true"},
	Args:        cobra.NoArgs,
	RunE:        runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	log := logger
	var bridge *tui.Bridge
	var killer monitor.Killer
	if watchPlain {
		killer = newKiller(nil, nil, log)
	} else {
		fl, closer := fileLogger()
		defer func() { _ = closer.Close() }()
		log = fl
		bridge = &tui.Bridge{}
		killer = newKiller(bridge, bridge, log)
	}
	mon := newMonitor(killer, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mon.StartPolling()
		<-ctx.Done()
		mon.StopPolling()
		mon.Wait()
		return nil
	})
	g.Go(func() error {
		if err := config.Watch(ctx, configPath, log, reloader(mon, log)); err != nil {
			log.Warn("config hot reload disabled", "err", err)
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		if watchPlain {
			updates, unsubscribe := mon.Subscribe()
			defer unsubscribe()
			return streamPlain(ctx, cmd.OutOrStdout(), updates, renderOptions(false))
		}
		return tui.Run(ctx, mon, bridge)
	})
	return g.Wait()
}

// streamPlain prints every added and removed socket until ctx ends.
func streamPlain(ctx context.Context, w io.Writer, updates <-chan monitor.View, opt render.Options) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case v, ok := <-updates:
			if !ok {
				return nil
			}
			for _, r := range v.Removed {
				if _, err := io.WriteString(w, render.Change(r, false, opt)); err != nil {
					return fmt.Errorf("write: %w", err)
				}
			}
			for _, r := range v.Added {
				if _, err := io.WriteString(w, render.Change(r, true, opt)); err != nil {
					return fmt.Errorf("write: %w", err)
				}
			}
		}
	}
}
