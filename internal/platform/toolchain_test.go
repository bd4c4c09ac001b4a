package platform

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckLsof(t *testing.T) {
	dir := t.TempDir()

	exe := filepath.Join(dir, "lsof")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := CheckLsof(exe); err != nil {
		t.Fatalf("expected executable to pass, got %v", err)
	}

	plain := filepath.Join(dir, "plain")
	if err := os.WriteFile(plain, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := CheckLsof(plain); !errors.Is(err, ErrLsofMissing) {
		t.Fatalf("expected ErrLsofMissing for non-executable file, got %v", err)
	}
	if err := CheckLsof(filepath.Join(dir, "missing")); !errors.Is(err, ErrLsofMissing) {
		t.Fatalf("expected ErrLsofMissing for missing file, got %v", err)
	}
	if err := CheckLsof(dir); !errors.Is(err, ErrLsofMissing) {
		t.Fatalf("expected ErrLsofMissing for directory, got %v", err)
	}
}

func TestResolveLsofPrefersExplicitPath(t *testing.T) {
	if got := ResolveLsof("/opt/bin/lsof"); got != "/opt/bin/lsof" {
		t.Fatalf("expected explicit path, got %q", got)
	}
	if got := ResolveLsof(""); got == "" {
		t.Fatalf("expected a default path")
	}
}

func TestInspectAddsHint(t *testing.T) {
	tc := Inspect(filepath.Join(t.TempDir(), "missing"), "/bin/kill")
	if tc.Found || tc.Hint == "" {
		t.Fatalf("expected missing toolchain with hint, got %+v", tc)
	}
}
