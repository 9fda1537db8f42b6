// Package clock maps wall-clock readings to game time.
package clock

import (
	"fmt"
	"math"
	"time"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

// State is everything game time depends on besides the current reading.
type State struct {
	Anchor      time.Time     // Wall time of Start
	LeadIn      time.Duration // Pre-roll before StartOffset is reached
	Speed       float64
	StartOffset float64 // Seconds
}

type Transport struct {
	wall    func() time.Time
	leadIn  time.Duration
	state   State
	started bool
	stopped bool
}

// New builds a transport reading the given wall clock, time.Now when nil.
func New(wall func() time.Time, leadIn time.Duration) *Transport {
	if nil == wall {
		wall = time.Now
	}
	return &Transport{wall: wall, leadIn: leadIn}
}

// Start anchors the transport at the current wall time.
func (t *Transport) Start(startOffset float64, speed float64) error {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return fmt.Errorf("playback speed must be > 0, got %v: %w", speed, game.ErrInvalidConfiguration)
	}
	if startOffset < 0 || math.IsNaN(startOffset) {
		return fmt.Errorf("start offset must be >= 0, got %v: %w", startOffset, game.ErrInvalidConfiguration)
	}
	if t.leadIn < 0 {
		return fmt.Errorf("lead-in must be >= 0, got %v: %w", t.leadIn, game.ErrInvalidConfiguration)
	}
	t.state = State{
		Anchor:      t.wall(),
		LeadIn:      t.leadIn,
		Speed:       speed,
		StartOffset: startOffset,
	}
	t.started = true
	t.stopped = false
	return nil
}

// At returns the game time in seconds for a wall reading. It is zero before
// Start.
func (t *Transport) At(wall time.Time) float64 {
	if !t.started {
		return 0
	}
	elapsed := wall.Sub(t.state.Anchor) - t.state.LeadIn
	gt := t.state.StartOffset + elapsed.Seconds()*t.state.Speed
	return math.Max(0, gt)
}

func (t *Transport) Now() float64 {
	return t.At(t.wall())
}

// WallAt is the inverse of At for game times past the lead-in.
func (t *Transport) WallAt(gameTime float64) time.Time {
	d := (gameTime - t.state.StartOffset) / t.state.Speed
	return t.state.Anchor.Add(t.state.LeadIn + time.Duration(d*float64(time.Second)))
}

// Stop only records that readers are done, the transport has nothing to
// release.
func (t *Transport) Stop() {
	t.stopped = true
}

func (t *Transport) Running() bool {
	return t.started && !t.stopped
}

func (t *Transport) State() State {
	return t.state
}
