package score

import (
	"math"
	"time"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

// SearchRadius bounds the feedback search. Inputs further than this from
// every event are noise.
const SearchRadius = 0.5 // Seconds

type DefaultScorer struct {
	events    []game.ExpectedEvent // Time sorted, never modified
	leniency  *game.LeniencyConfig
	pressOnly bool
	window    Window

	// Events in the window and of a judged kind, with resolved leniency
	scored   []game.ExpectedEvent
	windows  []game.Leniency
	resolved map[int]game.Leniency
}

func New(events []game.ExpectedEvent, leniency *game.LeniencyConfig, pressOnly bool, window Window) *DefaultScorer {
	s := &DefaultScorer{
		events:    events,
		leniency:  leniency,
		pressOnly: pressOnly,
		window:    window,
		resolved:  make(map[int]game.Leniency, len(events)),
	}
	for _, ev := range events {
		l := leniency.Resolve(ev.Idx)
		s.resolved[ev.Idx] = l
		if !window.Contains(ev.T) {
			continue
		}
		if pressOnly && ev.Kind != game.Press {
			continue
		}
		s.scored = append(s.scored, ev)
		s.windows = append(s.windows, l)
	}
	return s
}

// Distance is the signed offset in milliseconds, negative when early.
func Distance(ev *game.ExpectedEvent, actualT float64) float64 {
	return (actualT - ev.T) * 1000
}

func (s *DefaultScorer) Feedback(input game.InputEvent, at time.Time) (game.Feedback, bool) {
	if s.pressOnly && input.Kind == game.Release {
		return game.Feedback{}, false
	}

	var closest *game.ExpectedEvent
	best := math.Inf(1)
	for i := range s.events {
		ev := &s.events[i]
		if ev.Kind != input.Kind {
			continue
		}
		d := math.Abs(input.ActualT - ev.T)
		if d > SearchRadius {
			if ev.T > input.ActualT {
				// Sorted, everything after is further away
				break
			}
			continue
		}
		if d < best || (d == best && ev.Idx < closest.Idx) {
			best = d
			closest = ev
		}
	}
	if nil == closest {
		return game.Feedback{}, false
	}

	offset := Distance(closest, input.ActualT)
	return game.Feedback{
		OffsetMs:  offset,
		IsHit:     s.resolved[closest.Idx].Contains(offset),
		CreatedAt: at,
	}, true
}

func (s *DefaultScorer) Tally(now float64, inputs []game.InputEvent) game.Tally {
	tally := game.Tally{Total: len(s.scored)}
	for i := range s.scored {
		if now > s.windows[i].Deadline(s.scored[i].T) {
			tally.Judged++
		}
	}
	for _, input := range inputs {
		if s.matches(input) {
			tally.Hit++
		}
	}
	tally.Miss = tally.Judged - tally.Hit
	if tally.Miss < 0 {
		tally.Miss = 0
	}
	return tally
}

// matches reports whether an input lands in the window of any scored event
// of its kind.
func (s *DefaultScorer) matches(input game.InputEvent) bool {
	for i := range s.scored {
		ev := &s.scored[i]
		if ev.Kind != input.Kind {
			continue
		}
		if s.windows[i].Contains(Distance(ev, input.ActualT)) {
			return true
		}
	}
	return false
}

func (s *DefaultScorer) Next(now float64) (game.ExpectedEvent, bool) {
	for _, ev := range s.events {
		if s.pressOnly && ev.Kind != game.Press {
			continue
		}
		if ev.T > now-s.resolved[ev.Idx].EarlyMs/1000 {
			return ev, true
		}
	}
	return game.ExpectedEvent{}, false
}
