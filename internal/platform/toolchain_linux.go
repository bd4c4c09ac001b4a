//go:build linux

package platform

import "os/exec"

var lsofCandidates = []string{"/usr/bin/lsof", "/usr/sbin/lsof", "/bin/lsof"}

func InstallHint() string {
	return "porter needs lsof. Install it with your package manager, e.g. `apt install lsof` or `dnf install lsof`."
}

// Installer is nil on linux; there is no single package manager to drive.
func Installer() *exec.Cmd {
	return nil
}
