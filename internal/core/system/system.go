package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: accept channels, drain inboxes
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: agent, bots, local movement
	PhasePostUpdate              // 3: staleness sweep
	PhaseOutput                  // 4: build + flush frames
	PhaseCleanup                 // 5: drop closed channels
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseOutput:
		return "output"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// System is one unit of per-tick work.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
