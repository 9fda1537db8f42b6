// Package input captures the player's button transitions.
package input

import "git.lost.host/meutraa/gdpractice/internal/game"

// Recorder is the append-only log of one attempt. Only the frame callback
// writes to it.
type Recorder struct {
	events []game.InputEvent
}

func (r *Recorder) Press(t float64) game.InputEvent {
	return r.record(game.Press, t)
}

func (r *Recorder) Release(t float64) game.InputEvent {
	return r.record(game.Release, t)
}

func (r *Recorder) record(kind game.Kind, t float64) game.InputEvent {
	ev := game.InputEvent{Kind: kind, ActualT: t}
	r.events = append(r.events, ev)
	return ev
}

// Events returns the capture-ordered log. Callers must not modify it.
func (r *Recorder) Events() []game.InputEvent {
	return r.events
}

// Snapshot copies the log for handing to another owner.
func (r *Recorder) Snapshot() []game.InputEvent {
	out := make([]game.InputEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Reset() {
	r.events = nil
}
