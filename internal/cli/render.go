package cli

import (
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/pratik-anurag/porter/internal/render"
)

func renderOptions(json bool) render.Options {
	opt := render.Options{
		Color: resolveColor(cfg.Color),
	}
	if json {
		opt.Color = false
	}
	return opt
}

func resolveColor(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return true
	case "never":
		return false
	default:
		return term.IsTerminal(int(os.Stdout.Fd()))
	}
}
