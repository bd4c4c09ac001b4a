package sys

import "fmt"

// Tier is the step of the termination ladder that settled the outcome.
type Tier int

const (
	TierDirect Tier = iota + 1
	TierElevated
)

func (t Tier) String() string {
	switch t {
	case TierDirect:
		return "direct"
	case TierElevated:
		return "elevated"
	default:
		return "none"
	}
}

// ActionResult describes the outcome of a user-triggered action.
type ActionResult struct {
	OK       bool   `json:"ok"`
	Declined bool   `json:"declined,omitempty"`
	Tier     Tier   `json:"tier"`
	PIDs     []int  `json:"pids"`
	Summary  string `json:"summary"`
	Details  string `json:"details,omitempty"`
}

func noun(n int) string {
	if n == 1 {
		return "process"
	}
	return "processes"
}

// PermissionPrompt is the question asked before the elevated retry.
func PermissionPrompt(pids []int) string {
	what := "some processes"
	if len(pids) == 1 {
		what = "this process"
	}
	return fmt.Sprintf("porter lacks permission to kill %s. Admin privileges are required.", what)
}

func failedResult(pids []int, tier Tier) ActionResult {
	return ActionResult{
		Tier:    tier,
		PIDs:    pids,
		Summary: fmt.Sprintf("Failed to kill %s", noun(len(pids))),
		Details: fmt.Sprintf("porter was unable to terminate the selected %s.", noun(len(pids))),
	}
}

func killedResult(pids []int, tier Tier) ActionResult {
	return ActionResult{
		OK:      true,
		Tier:    tier,
		PIDs:    pids,
		Summary: fmt.Sprintf("Killed %d %s", len(pids), noun(len(pids))),
	}
}
