package render

import (
	"math"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

type Part uint8

const (
	PartLane Part = iota
	PartHead
	PartHold
	PartTail
	PartTarget
)

// Lane maps game time onto the columns of one terminal row. Notes enter on
// the right and travel left towards the target column.
type Lane struct {
	Width  int
	Target int     // Column of the hit line, 0 based
	Scroll float64 // Seconds between the target and the right edge
}

const laneMargin = 2

// Column returns the column of time t, which may be off the lane.
func (l Lane) Column(t, now float64) int {
	span := float64(l.Width - l.Target - laneMargin)
	return l.Target + int(math.Round((t-now)/l.Scroll*span))
}

// Window is the span of game time that can appear on the lane.
func (l Lane) Window(now float64) (float64, float64) {
	past := float64(l.Target) / float64(l.Width-l.Target-laneMargin) * l.Scroll
	return now - past, now + l.Scroll
}

// Advance slides the map's active note window to the notes that are, or
// soon will be, on the lane. Notes are ordered by start, so both ends only
// ever move forward while time does.
func Advance(m *game.Map, from, to float64) []game.Note {
	_, start, end := m.Active()
	for start < len(m.Notes) && start < end && m.Notes[start].EndT < from {
		start++
	}
	if end < start {
		end = start
	}
	for end < len(m.Notes) && m.Notes[end].StartT <= to {
		end++
	}
	m.SetActive(start, end)
	active, _, _ := m.Active()
	return active
}

// Row lays out notes on the lane at game time now.
func (l Lane) Row(notes []game.Note, now float64) []Part {
	if l.Width <= 0 {
		return nil
	}
	parts := make([]Part, l.Width)
	put := func(col int, p Part) {
		if col >= 0 && col < l.Width {
			parts[col] = p
		}
	}
	for i := range notes {
		n := &notes[i]
		head := l.Column(n.StartT, now)
		if n.IsHold {
			tail := l.Column(n.EndT, now)
			for c := head + 1; c < tail; c++ {
				put(c, PartHold)
			}
			put(tail, PartTail)
		}
		put(head, PartHead)
	}
	// The target stays visible over everything
	put(l.Target, PartTarget)
	return parts
}
