//go:build !linux && !darwin

package platform

import "os/exec"

var lsofCandidates []string

func InstallHint() string {
	return "porter needs lsof, which is not available on this OS."
}

func Installer() *exec.Cmd {
	return nil
}
