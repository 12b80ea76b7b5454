package engine

// RequiredTasks is how many completed tasks a warrior needs before the
// throne room opens. The count is all-time, so the unlock never reverts.
const RequiredTasks = 3

// ThroneStatus reports the throne-room gate.
type ThroneStatus struct {
	Unlocked  bool `json:"unlocked"`
	Completed int  `json:"completed"`
	Required  int  `json:"required"`
	Remaining int  `json:"remaining"`
}

// ThroneStatusFor evaluates the gate for an all-time completion count.
func ThroneStatusFor(completed int) ThroneStatus {
	remaining := RequiredTasks - completed
	if remaining < 0 {
		remaining = 0
	}
	return ThroneStatus{
		Unlocked:  completed >= RequiredTasks,
		Completed: completed,
		Required:  RequiredTasks,
		Remaining: remaining,
	}
}
