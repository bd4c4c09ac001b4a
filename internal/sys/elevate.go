package sys

import (
	"fmt"
	"strconv"
	"strings"
)

// Elevation selects how the privileged retry gains admin rights.
type Elevation string

const (
	ElevateAuto      Elevation = "auto"
	ElevateOsascript Elevation = "osascript"
	ElevatePkexec    Elevation = "pkexec"
	ElevateSudo      Elevation = "sudo"
	ElevateNone      Elevation = "none"
)

func ParseElevation(s string) (Elevation, error) {
	switch e := Elevation(strings.ToLower(strings.TrimSpace(s))); e {
	case "":
		return ElevateAuto, nil
	case ElevateAuto, ElevateOsascript, ElevatePkexec, ElevateSudo, ElevateNone:
		return e, nil
	}
	return "", fmt.Errorf("unknown elevation %q (auto|osascript|pkexec|sudo|none)", s)
}

func pidArgs(pids []int) []string {
	out := make([]string, 0, len(pids))
	for _, p := range pids {
		out = append(out, strconv.Itoa(p))
	}
	return out
}

// killArgs is the forceful kill argument list shared by every tier.
func killArgs(pids []int) []string {
	return append([]string{"-9"}, pidArgs(pids)...)
}

// elevatedCommand wraps `kill -9 <pids>` in the elevation tool. ok is false
// when elevation is disabled.
func elevatedCommand(e Elevation, killPath string, pids []int) (name string, args []string, ok bool) {
	if e == ElevateAuto {
		e = defaultElevation()
	}
	switch e {
	case ElevateOsascript:
		script := fmt.Sprintf("do shell script \"%s %s\" with administrator privileges",
			killPath, strings.Join(killArgs(pids), " "))
		return "/usr/bin/osascript", []string{"-e", script}, true
	case ElevatePkexec:
		return "pkexec", append([]string{killPath}, killArgs(pids)...), true
	case ElevateSudo:
		// -n: the runner has no terminal to prompt on.
		return "sudo", append([]string{"-n", "--", killPath}, killArgs(pids)...), true
	}
	return "", nil, false
}
