// Package ticks converts between authored frame ticks and milliseconds.
package ticks

import (
	"fmt"
	"math"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

func frameMs(fps float64) (float64, error) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return 0, fmt.Errorf("fps must be > 0, got %v: %w", fps, game.ErrInvalidConfiguration)
	}
	return 1000 / fps, nil
}

func ToMs(ticks, fps float64) (float64, error) {
	f, err := frameMs(fps)
	if nil != err {
		return 0, err
	}
	return ticks * f, nil
}

func ToTicks(ms, fps float64) (float64, error) {
	f, err := frameMs(fps)
	if nil != err {
		return 0, err
	}
	return ms / f, nil
}

// Round is only for display, judgement stays in float milliseconds.
func Round(ms, fps float64) (int, error) {
	t, err := ToTicks(ms, fps)
	if nil != err {
		return 0, err
	}
	return int(math.Round(t)), nil
}

// Format renders a signed offset as "+3 ticks (+50.0ms)".
func Format(ms, fps float64) string {
	sign := "+"
	if ms < 0 {
		sign = "-"
	}
	t, err := Round(math.Abs(ms), fps)
	if nil != err {
		return fmt.Sprintf("%+.1fms", ms)
	}
	return fmt.Sprintf("%s%d ticks (%+.1fms)", sign, t, ms)
}
