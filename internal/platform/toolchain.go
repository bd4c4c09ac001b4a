package platform

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrLsofMissing means the enumeration tool is absent or not executable.
var ErrLsofMissing = errors.New("lsof not found or not executable")

// Toolchain describes the external programs porter drives.
type Toolchain struct {
	LsofPath string `json:"lsof_path"`
	KillPath string `json:"kill_path"`
	Found    bool   `json:"found"`
	Hint     string `json:"hint,omitempty"`
}

// ResolveLsof returns path if set, otherwise the platform default.
func ResolveLsof(path string) string {
	if path != "" {
		return path
	}
	for _, p := range lsofCandidates {
		if isExecutable(p) {
			return p
		}
	}
	if p, err := exec.LookPath("lsof"); err == nil {
		return p
	}
	if len(lsofCandidates) > 0 {
		return lsofCandidates[0]
	}
	return "lsof"
}

// CheckLsof verifies that path exists and is executable.
func CheckLsof(path string) error {
	if !isExecutable(path) {
		return fmt.Errorf("%w: %s", ErrLsofMissing, path)
	}
	return nil
}

// Inspect reports on the toolchain without failing.
func Inspect(lsofPath, killPath string) Toolchain {
	tc := Toolchain{LsofPath: lsofPath, KillPath: killPath}
	tc.Found = CheckLsof(lsofPath) == nil
	if !tc.Found {
		tc.Hint = InstallHint()
	}
	return tc
}

func isExecutable(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return false
	}
	return fi.Mode().Perm()&0o111 != 0
}
