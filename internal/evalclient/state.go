package evalclient

import (
	"fmt"
	"time"
)

// Phase is a state of the request state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAttempting
	PhaseRetrying
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAttempting:
		return "attempting"
	case PhaseRetrying:
		return "retrying"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether no further transitions are possible.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// Transition describes one state change. Attempt is zero-based. Delay is set
// when entering PhaseRetrying; Err carries the failure that caused a
// retry or the terminal error.
type Transition struct {
	From    Phase
	To      Phase
	Attempt int
	Delay   time.Duration
	Err     error
}

var allowed = map[Phase][]Phase{
	PhaseIdle:       {PhaseAttempting, PhaseFailed},
	PhaseAttempting: {PhaseSucceeded, PhaseRetrying, PhaseFailed},
	PhaseRetrying:   {PhaseAttempting, PhaseFailed},
}

// machine tracks one logical request. It is never shared between calls.
type machine struct {
	phase   Phase
	attempt int
	lastErr error
	hook    func(Transition)
}

func (m *machine) to(next Phase, delay time.Duration, err error) {
	if !canTransition(m.phase, next) {
		panic(fmt.Sprintf("evalclient: invalid transition %s -> %s", m.phase, next))
	}
	t := Transition{From: m.phase, To: next, Attempt: m.attempt, Delay: delay, Err: err}
	m.phase = next
	if err != nil {
		m.lastErr = err
	}
	if m.hook != nil {
		m.hook(t)
	}
}

func canTransition(from, to Phase) bool {
	for _, p := range allowed[from] {
		if p == to {
			return true
		}
	}
	return false
}
