package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/pratik-anurag/porter/internal/model"
	"github.com/pratik-anurag/porter/internal/monitor"
	"github.com/pratik-anurag/porter/internal/render"
)

var (
	listJSON   bool
	listFilter string
	listSort   string
	listIcons  bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print records as JSON")
	listCmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Only show records whose name or port contains this text")
	listCmd.Flags().StringVarP(&listSort, "sort", "s", "", "Sort spec, e.g. port,-name (default from config)")
	listCmd.Flags().BoolVar(&listIcons, "icons", false, "Show the owning application path")
}

var listCmd = &cobra.Command{
	Use:         "list",
	Aliases:     []string{"ls"},
	Short:       "Print one snapshot of open ports",
	Annotations: map[string]string{needsLsof: "true"},
	Args:        cobra.NoArgs,
	RunE:        runList,
}

func runList(cmd *cobra.Command, args []string) error {
	spec := cfg.SortSpec()
	if listSort != "" {
		s, err := monitor.ParseSortSpec(listSort)
		if err != nil {
			return &exitError{code: exitUsage, err: err}
		}
		spec = s
	}

	recs, err := newLister(iconsFor(listIcons)).List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list sockets: %w", err)
	}
	spec.Apply(recs)
	recs = monitor.Filter(recs, listFilter)

	return writeRecords(cmd.OutOrStdout(), recs, listJSON)
}

func writeRecords(w io.Writer, recs []model.Record, asJSON bool) error {
	if asJSON {
		if recs == nil {
			recs = []model.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	}
	opt := renderOptions(false)
	opt.Icons = listIcons
	_, err := io.WriteString(w, render.Table(recs, opt))
	return err
}
