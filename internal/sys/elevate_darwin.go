//go:build darwin

package sys

const DefaultKillPath = "/bin/kill"

func defaultElevation() Elevation { return ElevateOsascript }
