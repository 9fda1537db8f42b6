package game

import (
	"fmt"
	"math"
	"time"
)

// Epsilon absorbs the float error of subtracting two second values and
// scaling to milliseconds, so that window bounds stay inclusive.
const Epsilon = 1e-6 // ms

// Leniency is the resolved asymmetric window around one event.
type Leniency struct {
	EarlyMs float64
	LateMs  float64
}

// Contains reports whether a signed offset lies within the window.
func (l Leniency) Contains(offsetMs float64) bool {
	return offsetMs >= -l.EarlyMs-Epsilon && offsetMs <= l.LateMs+Epsilon
}

// Deadline is the last game time at which an event at t can still be hit.
func (l Leniency) Deadline(t float64) float64 {
	return t + l.LateMs/1000
}

type LeniencyOverride struct {
	EarlyMs *float64 `json:"early_ms,omitempty"`
	LateMs  *float64 `json:"late_ms,omitempty"`
}

type LeniencyConfig struct {
	DefaultEarlyMs float64                  `json:"default_early_ms"`
	DefaultLateMs  float64                  `json:"default_late_ms"`
	Custom         map[int]LeniencyOverride `json:"custom"`
}

// Resolve returns the window for the event with the given idx.
func (c *LeniencyConfig) Resolve(idx int) Leniency {
	l := Leniency{EarlyMs: c.DefaultEarlyMs, LateMs: c.DefaultLateMs}
	custom, ok := c.Custom[idx]
	if !ok {
		return l
	}
	if nil != custom.EarlyMs {
		l.EarlyMs = *custom.EarlyMs
	}
	if nil != custom.LateMs {
		l.LateMs = *custom.LateMs
	}
	return l
}

func (c *LeniencyConfig) Validate() error {
	check := func(name string, v float64) error {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s must be a finite value >= 0, got %v: %w", name, v, ErrInvalidConfiguration)
		}
		return nil
	}
	if err := check("default_early_ms", c.DefaultEarlyMs); nil != err {
		return err
	}
	if err := check("default_late_ms", c.DefaultLateMs); nil != err {
		return err
	}
	for idx, custom := range c.Custom {
		if nil != custom.EarlyMs {
			if err := check(fmt.Sprintf("custom[%d].early_ms", idx), *custom.EarlyMs); nil != err {
				return err
			}
		}
		if nil != custom.LateMs {
			if err := check(fmt.Sprintf("custom[%d].late_ms", idx), *custom.LateMs); nil != err {
				return err
			}
		}
	}
	return nil
}

// Feedback is the live verdict on the latest input. It is replaced, never
// queued.
type Feedback struct {
	OffsetMs  float64
	IsHit     bool
	CreatedAt time.Time
}

// Early reports whether the input came before its event.
func (f *Feedback) Early() bool {
	return f.OffsetMs < 0
}

// Tally is the running approximation of the result.
type Tally struct {
	Judged int // Events whose late deadline has passed
	Total  int // Events in the scoring window
	Hit    int
	Miss   int
}
