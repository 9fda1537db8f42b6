package game

import "fmt"

// Kind is the wire name of a button transition.
type Kind string

const (
	Press   Kind = "down"
	Release Kind = "up"
)

func (k Kind) Validate() error {
	switch k {
	case Press, Release:
		return nil
	}
	return fmt.Errorf("unknown event kind %q: %w", string(k), ErrInvalidConfiguration)
}

// ExpectedEvent is one authored transition of the macro. Idx survives any
// filtering of the event list.
type ExpectedEvent struct {
	Idx   int     `json:"idx"`
	Kind  Kind    `json:"kind"`
	T     float64 `json:"t"` // Seconds
	Frame int     `json:"frame"`
}

// InputEvent is one captured transition of the player's button.
type InputEvent struct {
	Kind    Kind    `json:"kind"`
	ActualT float64 `json:"actual_t"` // Seconds of game time
}
