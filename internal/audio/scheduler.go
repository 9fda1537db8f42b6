package audio

import (
	"time"

	"go.uber.org/zap"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

const (
	CueFrequency = 432.0
	CueVolume    = 0.35 * 0.35 * 1.5
	Attack       = 8 * time.Millisecond
	Decay        = 18 * time.Millisecond
)

// Scheduler turns passed events into cue envelopes. The trigger decision
// uses visual game time, the envelope placement uses the voice's clock.
// The cursor only moves forward; a retry builds a new Scheduler.
type Scheduler struct {
	events  []game.ExpectedEvent
	cursor  int
	out     Output // nil when muted
	voice   *Voice
	volume  float64
	stopped bool
	log     *zap.Logger
}

// NewScheduler takes the time-sorted events of the map. A nil output gives
// a silent scheduler that still tracks its cursor.
func NewScheduler(events []game.ExpectedEvent, out Output, volume float64, log *zap.Logger) *Scheduler {
	if nil == log {
		log = zap.NewNop()
	}
	return &Scheduler{events: events, out: out, volume: volume, log: log}
}

// Start begins playing the silent voice.
func (s *Scheduler) Start() {
	if nil == s.out || s.stopped {
		return
	}
	s.voice = NewVoice(s.out.SampleRate(), CueFrequency)
	s.out.Play(s.voice)
}

// Step advances past every event at or before now and returns how many
// were triggered.
func (s *Scheduler) Step(now float64) int {
	if s.stopped {
		return 0
	}
	start := s.cursor
	for s.cursor < len(s.events) && s.events[s.cursor].T <= now {
		s.cursor++
	}
	triggered := s.cursor - start
	if triggered == 0 || nil == s.voice {
		return triggered
	}

	s.out.Lock()
	for _, ev := range s.events[start:s.cursor] {
		if ev.Kind == game.Press {
			s.voice.RampTo(s.volume, Attack)
		} else {
			s.voice.RampTo(0, Decay)
		}
	}
	s.out.Unlock()
	return triggered
}

// Seek moves the cursor past events before t without sounding them, for
// attempts that start part way through a map.
func (s *Scheduler) Seek(t float64) {
	for s.cursor < len(s.events) && s.events[s.cursor].T < t {
		s.cursor++
	}
}

func (s *Scheduler) Cursor() int {
	return s.cursor
}

// Stop silences and releases the voice. Safe to call more than once.
func (s *Scheduler) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	if nil == s.voice {
		return
	}
	s.out.Lock()
	s.voice.Stop()
	s.out.Unlock()
	s.voice = nil
	s.log.Debug("cue voice released", zap.Int("cursor", s.cursor))
}
