//go:build !linux && !darwin

package sys

const DefaultKillPath = "kill"

func defaultElevation() Elevation { return ElevateNone }
