package system

import "time"

// Phase orders systems within a tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: logins, drain packet queues
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: movement and game logic
	PhaseOutput                  // 3: build + flush packets
	PhaseCleanup                 // 4: reset flags, destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhaseOutput:
		return "output"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
