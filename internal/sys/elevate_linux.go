//go:build linux

package sys

import "os/exec"

const DefaultKillPath = "/bin/kill"

func defaultElevation() Elevation {
	if _, err := exec.LookPath("pkexec"); err == nil {
		return ElevatePkexec
	}
	return ElevateSudo
}
