// Package audio drives the cue tone and the music track.
package audio

import (
	"fmt"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

// Output is the audio device. Lock and Unlock guard state shared with
// streamers that are playing.
type Output interface {
	SampleRate() beep.SampleRate
	Play(s beep.Streamer)
	Lock()
	Unlock()
}

type speakerOutput struct {
	sr beep.SampleRate
}

// OpenSpeaker initialises the system speaker with a buffer of one frame
// period.
func OpenSpeaker(sr beep.SampleRate, buffer time.Duration) (Output, error) {
	if err := speaker.Init(sr, sr.N(buffer)); nil != err {
		return nil, fmt.Errorf("unable to open speaker: %v: %w", err, game.ErrAudioUnavailable)
	}
	return &speakerOutput{sr: sr}, nil
}

func (o *speakerOutput) SampleRate() beep.SampleRate {
	return o.sr
}

func (o *speakerOutput) Play(s beep.Streamer) {
	speaker.Play(s)
}

func (o *speakerOutput) Lock() {
	speaker.Lock()
}

func (o *speakerOutput) Unlock() {
	speaker.Unlock()
}
