package audio

import (
	"math"
	"time"

	"github.com/faiface/beep"
)

// Voice is a sine oscillator behind a gain envelope. Its clock is the number
// of samples it has rendered, which is the only clock that agrees with what
// the speaker actually plays. Envelope changes are placed on that clock.
//
// Stream runs on the speaker goroutine; every other method must be called
// with the output locked.
type Voice struct {
	sr    beep.SampleRate
	freq  float64
	phase float64

	clock int64 // Samples rendered

	// Linear ramp from "from" at rampStart to "to" at rampEnd.
	from, to           float64
	rampStart, rampEnd int64

	stopped bool
}

func NewVoice(sr beep.SampleRate, freq float64) *Voice {
	return &Voice{sr: sr, freq: freq}
}

func (v *Voice) gainAt(n int64) float64 {
	if n >= v.rampEnd {
		return v.to
	}
	if n <= v.rampStart {
		return v.from
	}
	p := float64(n-v.rampStart) / float64(v.rampEnd-v.rampStart)
	return v.from + (v.to-v.from)*p
}

func (v *Voice) Stream(samples [][2]float64) (n int, ok bool) {
	if v.stopped {
		return 0, false
	}
	step := 2 * math.Pi * v.freq / float64(v.sr)
	for i := range samples {
		s := math.Sin(v.phase) * v.gainAt(v.clock)
		samples[i][0] = s
		samples[i][1] = s
		v.phase += step
		if v.phase > 2*math.Pi {
			v.phase -= 2 * math.Pi
		}
		v.clock++
	}
	return len(samples), true
}

func (v *Voice) Err() error {
	return nil
}

// Now is the voice's own current time.
func (v *Voice) Now() time.Duration {
	return v.sr.D(int(v.clock))
}

// Gain is the envelope value at the voice's current time.
func (v *Voice) Gain() float64 {
	return v.gainAt(v.clock)
}

// RampTo drops any pending ramp, holds the current gain and moves linearly
// to target over d, starting at the voice's current time.
func (v *Voice) RampTo(target float64, d time.Duration) {
	v.from = v.gainAt(v.clock)
	v.to = target
	v.rampStart = v.clock
	v.rampEnd = v.clock + int64(v.sr.N(d))
	if v.rampEnd <= v.rampStart {
		v.rampEnd = v.rampStart + 1
	}
}

// Stop makes the next Stream report exhaustion, so the speaker drops the
// voice.
func (v *Voice) Stop() {
	v.stopped = true
}
