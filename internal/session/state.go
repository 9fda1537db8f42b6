package session

import "errors"

type State uint8

const (
	Idle State = iota
	LeadIn
	Playing
	Ended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LeadIn:
		return "lead_in"
	case Playing:
		return "playing"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// ErrState is returned for an operation the current state does not allow.
var ErrState = errors.New("not allowed in this session state")
