package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pratik-anurag/porter/internal/model"
	"github.com/pratik-anurag/porter/internal/sys"
)

type Options struct {
	Color bool
	// Icons adds the resolved application path column.
	Icons bool
}

// Table renders records as a fixed-width table.
func Table(recs []model.Record, opt Options) string {
	if len(recs) == 0 {
		return "No open ports.\n"
	}
	var b strings.Builder
	header := fmt.Sprintf("%-20s  %-6s  %-15s  %-7s  %-4s  %-10s  %-6s", "PROCESS", "PORT", "PROTOCOL", "PID", "IP", "USER", "FD")
	if opt.Icons {
		header += "  APP"
	}
	b.WriteString(label(header, opt) + "\n")

	for _, r := range recs {
		fmt.Fprintf(&b, "%-20s  %-6d  %s  %-7s  %-4s  %-10s  %-6s",
			trunc(dash(r.Name), 20),
			r.Port,
			protoCell(r, opt),
			pidStr(r.PID),
			ipShort(r.IPVersion),
			trunc(dash(r.User), 10),
			trunc(dash(r.FD), 6),
		)
		if opt.Icons {
			fmt.Fprintf(&b, "  %s", dash(r.Icon))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Change renders one added or removed record as a single line.
func Change(r model.Record, added bool, opt Options) string {
	sign, color := "-", ansiRed
	if added {
		sign, color = "+", ansiGreen
	}
	line := fmt.Sprintf("%s %s %d/%s pid=%s user=%s fd=%s",
		sign, dash(r.Name), r.Port, r.Protocol, pidStr(r.PID), dash(r.User), dash(r.FD))
	if r.State != model.StateNone {
		line += " " + string(r.State)
	}
	if !opt.Color {
		return line + "\n"
	}
	return color + line + ansiReset + "\n"
}

func ActionResult(r sys.ActionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", r.Summary)
	if r.Details != "" {
		fmt.Fprintf(&b, "%s\n", r.Details)
	}
	return b.String()
}

// protoCell is "TCP LISTEN" padded to 15 visible columns.
func protoCell(r model.Record, opt Options) string {
	if r.State == model.StateNone {
		return fmt.Sprintf("%-15s", r.Protocol)
	}
	plain := fmt.Sprintf("%s %s", r.Protocol, r.State)
	pad := ""
	if n := 15 - len(plain); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	return string(r.Protocol) + " " + stateLabel(r.State, opt) + pad
}

func ipShort(v model.IPVersion) string {
	switch v {
	case model.IPv4:
		return "v4"
	case model.IPv6:
		return "v6"
	}
	return "-"
}

func pidStr(pid int) string {
	if pid <= 0 {
		return "-"
	}
	return strconv.Itoa(pid)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func trunc(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func label(s string, opt Options) string {
	if !opt.Color {
		return s
	}
	return ansiBold + s + ansiReset
}

func stateLabel(state model.TCPState, opt Options) string {
	if !opt.Color {
		return string(state)
	}
	switch state {
	case model.StateListen:
		return ansiBlue + string(state) + ansiReset
	case model.StateEstablished:
		return ansiGreen + string(state) + ansiReset
	case model.StateClosed:
		return ansiRed + string(state) + ansiReset
	default:
		return ansiYellow + string(state) + ansiReset
	}
}

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)
