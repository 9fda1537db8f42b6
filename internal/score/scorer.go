package score

import (
	"time"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

// Scorer estimates timing accuracy live. Its numbers approximate the
// authoritative evaluator and are never final.
type Scorer interface {
	// Feedback judges one input against its nearest event of the same kind
	Feedback(input game.InputEvent, at time.Time) (game.Feedback, bool)

	// Tally recounts the whole attempt at the given game time
	Tally(now float64, inputs []game.InputEvent) game.Tally

	// Next is the upcoming event the player should aim for
	Next(now float64) (game.ExpectedEvent, bool)
}

// Window is the practice section being scored.
type Window struct {
	Start *float64 // Seconds, nil for the map start
	End   *float64 // Seconds, nil for no bound
}

func (w Window) Contains(t float64) bool {
	if nil != w.Start && t < *w.Start {
		return false
	}
	if nil != w.End && t > *w.End {
		return false
	}
	return true
}
