package render

import (
	"strings"
	"testing"

	"github.com/pratik-anurag/porter/internal/model"
	"github.com/pratik-anurag/porter/internal/sys"
)

var pg = model.Record{Name: "postgres", User: "me", PID: 8123, Port: 5432, Protocol: model.TCP, IPVersion: model.IPv6, State: model.StateListen, FD: "6u", Icon: "/usr/bin/postgres"}

func TestTablePlain(t *testing.T) {
	out := Table([]model.Record{pg, {Name: "mDNS", PID: -1, Port: 5353, Protocol: model.UDP, IPVersion: model.IPv4, FD: "9u"}}, Options{})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %q", out)
	}
	if !strings.HasPrefix(lines[0], "PROCESS") {
		t.Fatalf("expected header, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "TCP LISTEN") || !strings.Contains(lines[1], "8123") || !strings.Contains(lines[1], "v6") {
		t.Fatalf("unexpected row %q", lines[1])
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("plain output must not contain ANSI codes")
	}
	if !strings.Contains(lines[2], " - ") {
		t.Fatalf("sentinel pid should render as dash, got %q", lines[2])
	}
	if strings.Contains(out, "/usr/bin/postgres") {
		t.Fatalf("icons column only when requested")
	}
}

func TestTableColorAndIcons(t *testing.T) {
	out := Table([]model.Record{pg}, Options{Color: true, Icons: true})
	if !strings.Contains(out, ansiBlue+"LISTEN"+ansiReset) {
		t.Fatalf("expected colored LISTEN badge, got %q", out)
	}
	if !strings.Contains(out, "/usr/bin/postgres") {
		t.Fatalf("expected icon column")
	}
}

func TestTableEmpty(t *testing.T) {
	if Table(nil, Options{}) != "No open ports.\n" {
		t.Fatalf("unexpected empty table")
	}
}

func TestChange(t *testing.T) {
	if got := Change(pg, true, Options{}); got != "+ postgres 5432/TCP pid=8123 user=me fd=6u LISTEN\n" {
		t.Fatalf("unexpected change line %q", got)
	}
	if got := Change(pg, false, Options{Color: true}); !strings.HasPrefix(got, ansiRed+"- postgres") {
		t.Fatalf("expected red removal line, got %q", got)
	}
}

func TestActionResult(t *testing.T) {
	got := ActionResult(sys.ActionResult{Summary: "Failed to kill process", Details: "porter was unable to terminate the selected process."})
	if got != "Failed to kill process\nporter was unable to terminate the selected process.\n" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestTrunc(t *testing.T) {
	if trunc("postgres", 4) != "pos…" || trunc("pg", 4) != "pg" {
		t.Fatalf("unexpected truncation")
	}
}
