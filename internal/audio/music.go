package audio

import (
	"bytes"
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
)

type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error {
	return nil
}

// Music is a decoded track that can be started at an offset, paused and
// rewound without being torn down.
type Music struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	out      Output
}

// DecodeMusic decodes an ogg or mp3 file held in memory. The name only
// selects the decoder.
func DecodeMusic(name string, data []byte) (*Music, error) {
	rc := nopCloser{bytes.NewReader(data)}
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch strings.ToLower(path.Ext(name)) {
	case ".ogg":
		streamer, format, err = vorbis.Decode(rc)
	case ".mp3", "":
		streamer, format, err = mp3.Decode(rc)
	default:
		return nil, fmt.Errorf("unsupported music format %q", path.Ext(name))
	}
	if nil != err {
		return nil, fmt.Errorf("unable to decode %s: %w", name, err)
	}
	return NewMusic(streamer, format), nil
}

func NewMusic(streamer beep.StreamSeekCloser, format beep.Format) *Music {
	return &Music{streamer: streamer, format: format}
}

// Play starts the track at offset seconds, after a wall-clock delay, with
// its tempo scaled by speed. Volume is linear in [0, 1].
func (m *Music) Play(out Output, offset float64, speed float64, delay time.Duration, volume float64) error {
	pos := m.format.SampleRate.N(time.Duration(offset * float64(time.Second)))
	if pos >= m.streamer.Len() {
		pos = m.streamer.Len() - 1
	}
	if pos < 0 {
		pos = 0
	}

	out.Lock()
	defer out.Unlock()

	if err := m.streamer.Seek(pos); nil != err {
		return fmt.Errorf("unable to seek music: %w", err)
	}
	ratio := float64(m.format.SampleRate) / float64(out.SampleRate()) * speed
	resampled := beep.ResampleRatio(4, ratio, m.streamer)
	vol := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   math.Log2(math.Max(volume, 1e-6)),
		Silent:   volume <= 0,
	}
	m.ctrl = &beep.Ctrl{Streamer: beep.Seq(beep.Silence(out.SampleRate().N(delay)), vol)}
	m.out = out
	out.Play(m.ctrl)
	return nil
}

// Pause stops playback and rewinds to the beginning, keeping the decoder.
func (m *Music) Pause() error {
	if nil == m.ctrl {
		return nil
	}
	m.out.Lock()
	defer m.out.Unlock()
	m.ctrl.Paused = true
	m.ctrl.Streamer = nil
	return m.streamer.Seek(0)
}

func (m *Music) Close() error {
	return m.streamer.Close()
}
