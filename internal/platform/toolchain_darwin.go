//go:build darwin

package platform

import "os/exec"

var lsofCandidates = []string{"/usr/sbin/lsof"}

func InstallHint() string {
	return "porter needs the Xcode Command Line Tools (lsof), either not installed or lacking disk access. Run `xcode-select --install` or grant access manually."
}

// Installer starts the Command Line Tools installer. The install itself
// continues outside porter; callers should exit afterwards.
func Installer() *exec.Cmd {
	return exec.Command("/usr/bin/xcode-select", "--install")
}
