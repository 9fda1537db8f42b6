package score

import (
	"testing"
	"time"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

var lenient = &game.LeniencyConfig{DefaultEarlyMs: 50, DefaultLateMs: 70}

type feedbackTest struct {
	input    game.InputEvent
	found    bool
	offsetMs float64
	hit      bool
}

func TestFeedbackClassification(t *testing.T) {
	events := []game.ExpectedEvent{{Idx: 0, Kind: game.Press, T: 10.0, Frame: 600}}
	s := New(events, lenient, false, Window{})

	tests := []feedbackTest{
		{game.InputEvent{Kind: game.Press, ActualT: 9.955}, true, -45, true},
		{game.InputEvent{Kind: game.Press, ActualT: 9.940}, true, -60, false},
		{game.InputEvent{Kind: game.Press, ActualT: 10.070}, true, 70, true},
		{game.InputEvent{Kind: game.Press, ActualT: 10.071}, true, 71, false},
		{game.InputEvent{Kind: game.Press, ActualT: 10.6}, false, 0, false},
		{game.InputEvent{Kind: game.Release, ActualT: 10.0}, false, 0, false},
	}
	for _, test := range tests {
		at := time.Unix(100, 0)
		fb, ok := s.Feedback(test.input, at)
		if ok != test.found {
			t.Fatalf("%+v: found = %v, expected %v", test.input, ok, test.found)
		}
		if !ok {
			continue
		}
		if diff := fb.OffsetMs - test.offsetMs; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("%+v: offset %v, expected %v", test.input, fb.OffsetMs, test.offsetMs)
		}
		if fb.IsHit != test.hit {
			t.Errorf("%+v: hit = %v, expected %v", test.input, fb.IsHit, test.hit)
		}
		if !fb.CreatedAt.Equal(at) {
			t.Errorf("%+v: created at %v", test.input, fb.CreatedAt)
		}
	}
}

func TestFeedbackNearestMatch(t *testing.T) {
	events := []game.ExpectedEvent{
		{Idx: 0, Kind: game.Press, T: 10.0},
		{Idx: 1, Kind: game.Release, T: 10.1},
		{Idx: 2, Kind: game.Press, T: 10.3},
	}
	s := New(events, lenient, false, Window{})

	fb, ok := s.Feedback(game.InputEvent{Kind: game.Press, ActualT: 10.16}, time.Time{})
	if !ok {
		t.Fatalf("expected a match")
	}
	if diff := fb.OffsetMs - (-140); diff > 1e-6 || diff < -1e-6 {
		t.Fatalf("matched offset %v, expected -140 against t=10.3", fb.OffsetMs)
	}

	if _, ok := s.Feedback(game.InputEvent{Kind: game.Press, ActualT: 9.49}, time.Time{}); ok {
		t.Fatalf("input more than 500ms from every press must not match")
	}
	if _, ok := s.Feedback(game.InputEvent{Kind: game.Press, ActualT: 10.81}, time.Time{}); ok {
		t.Fatalf("input more than 500ms after every press must not match")
	}
}

func TestFeedbackTieBreaksByIdx(t *testing.T) {
	// Equidistant candidates, the lower idx listed second
	events := []game.ExpectedEvent{
		{Idx: 7, Kind: game.Press, T: 1.0},
		{Idx: 3, Kind: game.Press, T: 1.5},
	}
	config := &game.LeniencyConfig{
		DefaultEarlyMs: 300,
		DefaultLateMs:  300,
		Custom: map[int]game.LeniencyOverride{
			7: {LateMs: ms(0)},
		},
	}
	s := New(events, config, false, Window{})
	fb, ok := s.Feedback(game.InputEvent{Kind: game.Press, ActualT: 1.25}, time.Time{})
	if !ok {
		t.Fatalf("expected a match")
	}
	// idx 3 is 250ms later, inside its 300ms early window
	if !fb.IsHit || fb.OffsetMs > 0 {
		t.Fatalf("expected match against idx 3, got %+v", fb)
	}
}

func TestFeedbackPressOnlyDropsReleases(t *testing.T) {
	events := []game.ExpectedEvent{
		{Idx: 0, Kind: game.Press, T: 1.0},
		{Idx: 1, Kind: game.Release, T: 1.5},
	}
	s := New(events, lenient, true, Window{})
	if _, ok := s.Feedback(game.InputEvent{Kind: game.Release, ActualT: 1.5}, time.Time{}); ok {
		t.Fatalf("release feedback in press-only mode")
	}
	if _, ok := s.Feedback(game.InputEvent{Kind: game.Press, ActualT: 1.0}, time.Time{}); !ok {
		t.Fatalf("press feedback missing in press-only mode")
	}
}

func TestNext(t *testing.T) {
	events := []game.ExpectedEvent{
		{Idx: 0, Kind: game.Press, T: 1.0},
		{Idx: 1, Kind: game.Release, T: 1.5},
		{Idx: 2, Kind: game.Press, T: 2.0},
	}
	s := New(events, lenient, false, Window{})
	nextTests := map[float64]int{
		0:     0,
		1.04:  0, // still within the early window
		1.06:  1,
		1.549: 1,
		1.6:   2,
	}
	for now, idx := range nextTests {
		ev, ok := s.Next(now)
		if !ok || ev.Idx != idx {
			t.Errorf("Next(%v) = %v %v, expected idx %v", now, ev, ok, idx)
		}
	}
	if _, ok := s.Next(3); ok {
		t.Errorf("expected no next event after the map")
	}

	pressOnly := New(events, lenient, true, Window{})
	if ev, _ := pressOnly.Next(1.2); ev.Idx != 2 {
		t.Errorf("press-only Next skipped to %v, expected idx 2", ev.Idx)
	}
}

func ms(v float64) *float64 {
	return &v
}
