// Package session sequences one practice attempt after another: loading,
// the countdown, per-frame play and handing the attempt to the evaluator.
package session

import (
	"context"
	"fmt"
	"math"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"git.lost.host/meutraa/gdpractice/internal/api"
	"git.lost.host/meutraa/gdpractice/internal/audio"
	"git.lost.host/meutraa/gdpractice/internal/clock"
	"git.lost.host/meutraa/gdpractice/internal/game"
	"git.lost.host/meutraa/gdpractice/internal/input"
	"git.lost.host/meutraa/gdpractice/internal/score"
)

const (
	// Play ends this long after the final event when no practice end is set
	Grace = 1.0 // Seconds
	// How long a feedback record stays visible
	FeedbackTTL = 500 * time.Millisecond
	// Taps closer together than this are the terminal repeating a held key
	TapRepeat = 80 * time.Millisecond
)

// MusicFetcher downloads a music asset.
type MusicFetcher interface {
	FetchMusic(ctx context.Context, url string) ([]byte, error)
}

type Config struct {
	Source    api.Source
	Evaluator api.Evaluator
	Fetcher   MusicFetcher     // nil disables music
	Output    audio.Output     // nil when no audio device could be opened
	Wall      func() time.Time // time.Now when nil
	Log       *zap.Logger
}

type Options struct {
	Speed       float64
	Start       *float64 // Seconds, nil for the map start
	End         *float64 // Seconds, nil to end after the last event
	PressOnly   bool
	Countdown   time.Duration
	PreRoll     time.Duration
	HitWindowMs float64
	Beep        bool
	Music       bool
	Volume      float64
}

func (o *Options) Validate() error {
	if o.Speed <= 0 || math.IsNaN(o.Speed) || math.IsInf(o.Speed, 0) {
		return fmt.Errorf("speed must be > 0, got %v: %w", o.Speed, game.ErrInvalidConfiguration)
	}
	if nil != o.Start && *o.Start < 0 {
		return fmt.Errorf("start must be >= 0, got %v: %w", *o.Start, game.ErrInvalidConfiguration)
	}
	if nil != o.End && *o.End < 0 {
		return fmt.Errorf("end must be >= 0, got %v: %w", *o.End, game.ErrInvalidConfiguration)
	}
	if nil != o.Start && nil != o.End && *o.End <= *o.Start {
		return fmt.Errorf("end %v must be after start %v: %w", *o.End, *o.Start, game.ErrInvalidConfiguration)
	}
	if o.Countdown < 0 || o.PreRoll < 0 {
		return fmt.Errorf("countdown and pre-roll must not be negative: %w", game.ErrInvalidConfiguration)
	}
	return nil
}

func (o *Options) startOffset() float64 {
	if nil == o.Start {
		return 0
	}
	return *o.Start
}

// Session owns every piece of attempt state. It is not safe for concurrent
// use: the frame loop is its only caller.
type Session struct {
	cfg  Config
	opts Options
	log  *zap.Logger
	wall func() time.Time

	state    State
	m        *game.Map
	leniency *game.LeniencyConfig
	music    *audio.Music

	// Countdown
	remaining time.Duration
	lastTick  time.Time

	// Attempt
	attempt   string
	alog      *zap.Logger
	transport *clock.Transport
	cues      *audio.Scheduler
	scorer    *score.DefaultScorer
	recorder  input.Recorder
	held      bool
	heldUntil time.Time // Tap input only
	feedback  *game.Feedback
	current   float64 // Game time of the latest frame
	running   bool    // Frame loop flag
	ending    bool    // Re-entrancy guard of End
	endTime   float64

	evaluated bool
	result    *game.Result
}

func New(cfg Config, opts Options) (*Session, error) {
	if err := opts.Validate(); nil != err {
		return nil, err
	}
	if nil == cfg.Source || nil == cfg.Evaluator {
		return nil, fmt.Errorf("a map source and an evaluator are required: %w", game.ErrInvalidConfiguration)
	}
	if nil == cfg.Wall {
		cfg.Wall = time.Now
	}
	if nil == cfg.Log {
		cfg.Log = zap.NewNop()
	}
	return &Session{cfg: cfg, opts: opts, log: cfg.Log, alog: cfg.Log, wall: cfg.Wall}, nil
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Map() *game.Map {
	return s.m
}

func (s *Session) Options() Options {
	return s.opts
}

// Attempt is the id of the current or latest attempt.
func (s *Session) Attempt() string {
	return s.attempt
}

// HasMusic reports whether a track was loaded with the map.
func (s *Session) HasMusic() bool {
	return nil != s.music
}

// Load fetches a map and its leniency. On failure the session keeps
// whatever it had loaded before and stays idle.
func (s *Session) Load(ctx context.Context, name string) error {
	if s.state != Idle && s.state != Ended {
		return fmt.Errorf("load during %v: %w", s.state, ErrState)
	}

	m, err := s.cfg.Source.Load(ctx, name)
	if nil != err {
		s.log.Warn("map load failed", zap.String("map", name), zap.Error(err))
		return err
	}
	leniency, err := s.cfg.Source.Leniency(ctx, name)
	if nil != err {
		s.log.Warn("leniency load failed", zap.String("map", name), zap.Error(err))
		return err
	}
	if err := leniency.Validate(); nil != err {
		return err
	}
	if last, ok := m.LastEventTime(); ok && s.opts.startOffset() > last {
		s.log.Warn("practice start is after the final event", zap.Float64("start", s.opts.startOffset()), zap.Float64("last", last))
	}

	s.closeMusic()
	s.m, s.leniency = m, leniency
	s.state = Idle
	s.result, s.evaluated = nil, false
	s.loadMusic(ctx, name)

	s.log.Info("map loaded",
		zap.String("map", m.Name),
		zap.Int("events", len(m.Events)),
		zap.Float64("fps", m.FPS),
		zap.Bool("music", nil != s.music),
	)
	return nil
}

// loadMusic never fails the load, a map without its track is still
// playable.
func (s *Session) loadMusic(ctx context.Context, name string) {
	if !s.opts.Music || nil == s.cfg.Fetcher || nil == s.cfg.Output {
		return
	}
	info, err := s.cfg.Source.Music(ctx, name)
	if nil != err {
		s.log.Warn("music lookup failed", zap.String("map", name), zap.Error(err))
		return
	}
	if !info.Available {
		return
	}
	data, err := s.cfg.Fetcher.FetchMusic(ctx, info.URL)
	if nil != err {
		s.log.Warn("music download failed", zap.String("url", info.URL), zap.Error(err))
		return
	}
	music, err := audio.DecodeMusic(path.Base(info.URL), data)
	if nil != err {
		s.log.Warn("music decode failed", zap.String("url", info.URL), zap.Error(err))
		return
	}
	s.music = music
}

func (s *Session) closeMusic() {
	if nil == s.music {
		return
	}
	if err := s.music.Close(); nil != err {
		s.log.Warn("unable to close music", zap.Error(err))
	}
	s.music = nil
}

// BeginCountdown moves a loaded session into the lead in.
func (s *Session) BeginCountdown(now time.Time) error {
	if nil == s.m {
		return fmt.Errorf("no map loaded: %w", ErrState)
	}
	if s.state != Idle && s.state != Ended {
		return fmt.Errorf("countdown during %v: %w", s.state, ErrState)
	}
	s.state = LeadIn
	s.remaining = s.opts.Countdown
	s.lastTick = now
	if s.remaining <= 0 {
		return s.start()
	}
	return nil
}

// Retry starts a new attempt on the same map and leniency.
func (s *Session) Retry(now time.Time) error {
	if s.state != Ended && s.state != Idle {
		return fmt.Errorf("retry during %v: %w", s.state, ErrState)
	}
	return s.BeginCountdown(now)
}

// Countdown is the time left before play starts.
func (s *Session) Countdown() time.Duration {
	if s.state != LeadIn {
		return 0
	}
	return s.remaining
}

// Tick advances the countdown by the wall time since the previous tick,
// however late the tick arrived.
func (s *Session) Tick(now time.Time) error {
	if s.state != LeadIn {
		return nil
	}
	if elapsed := now.Sub(s.lastTick); elapsed > 0 {
		s.remaining -= elapsed
	}
	s.lastTick = now
	if s.remaining > 0 {
		return nil
	}
	s.remaining = 0
	return s.start()
}

// CancelCountdown returns to idle before play starts.
func (s *Session) CancelCountdown() {
	if s.state == LeadIn {
		s.state = Idle
		s.remaining = 0
	}
}

func (s *Session) start() error {
	offset := s.opts.startOffset()
	transport := clock.New(s.wall, s.opts.PreRoll)
	if err := transport.Start(offset, s.opts.Speed); nil != err {
		s.state = Idle
		return err
	}

	s.attempt = uuid.NewString()
	s.alog = s.log.With(zap.String("attempt", s.attempt))
	s.transport = transport
	s.recorder.Reset()
	s.held = false
	s.heldUntil = time.Time{}
	s.feedback = nil
	s.current = transport.Now()
	s.ending = false
	s.endTime = 0
	s.evaluated = false
	s.result = nil
	s.m.SetActive(0, 0)

	var out audio.Output
	if s.opts.Beep {
		out = s.cfg.Output
	}
	s.cues = audio.NewScheduler(s.m.Events, out, audio.CueVolume, s.alog)
	s.cues.Seek(offset)
	s.cues.Start()

	s.scorer = score.New(s.m.Events, s.leniency, s.opts.PressOnly, score.Window{Start: s.opts.Start, End: s.opts.End})

	if nil != s.music {
		if err := s.music.Play(s.cfg.Output, offset, s.opts.Speed, s.opts.PreRoll, s.opts.Volume); nil != err {
			s.alog.Warn("music unavailable, continuing without it", zap.Error(err))
		}
	}

	s.running = true
	s.state = Playing
	s.alog.Info("attempt started",
		zap.String("map", s.m.Name),
		zap.Float64("speed", s.opts.Speed),
		zap.Float64("start", offset),
		zap.Bool("press_only", s.opts.PressOnly),
		zap.Bool("muted", nil == out),
	)
	return nil
}

// Step is the per-frame update. It drives the countdown, the cues and the
// automatic end, and returns the game time of the frame.
func (s *Session) Step(now time.Time) float64 {
	switch s.state {
	case LeadIn:
		if err := s.Tick(now); nil != err {
			s.log.Error("unable to start attempt", zap.Error(err))
		}
		if s.state != Playing {
			return s.opts.startOffset()
		}
	case Playing:
	default:
		return s.current
	}
	if !s.running {
		return s.current
	}

	t := s.transport.At(now)
	s.current = t
	s.cues.Step(t)

	if nil != s.opts.End {
		if t >= *s.opts.End {
			s.End()
		}
	} else if t > s.lastTime()+Grace {
		s.End()
	}
	return t
}

// lastTime is the final event, or the map's duration when it has none.
func (s *Session) lastTime() float64 {
	if last, ok := s.m.LastEventTime(); ok {
		return last
	}
	return s.m.Duration
}

// Now is the game time of the latest frame.
func (s *Session) Now() float64 {
	return s.current
}

// Press records a button press taken at wall time at. Repeats while the
// button is held are dropped.
func (s *Session) Press(at time.Time) (game.InputEvent, bool) {
	if s.state != Playing || s.held {
		return game.InputEvent{}, false
	}
	s.held = true
	ev := s.recorder.Press(s.transport.At(at))
	s.judge(ev, at)
	return ev, true
}

func (s *Session) Release(at time.Time) (game.InputEvent, bool) {
	if s.state != Playing || !s.held {
		return game.InputEvent{}, false
	}
	s.held = false
	ev := s.recorder.Release(s.transport.At(at))
	s.judge(ev, at)
	return ev, true
}

// Tap records a press from an input that cannot observe releases. The
// button counts as held until no tap has arrived for TapRepeat, so key
// repeats of a held key are dropped.
func (s *Session) Tap(at time.Time) (game.InputEvent, bool) {
	if s.state != Playing {
		return game.InputEvent{}, false
	}
	if s.held && at.Before(s.heldUntil) {
		s.heldUntil = at.Add(TapRepeat)
		return game.InputEvent{}, false
	}
	s.held = false
	ev, ok := s.Press(at)
	if ok {
		s.heldUntil = at.Add(TapRepeat)
	}
	return ev, ok
}

func (s *Session) judge(ev game.InputEvent, at time.Time) {
	f, ok := s.scorer.Feedback(ev, at)
	if !ok {
		return
	}
	s.feedback = &f
	s.alog.Debug("input",
		zap.String("kind", string(ev.Kind)),
		zap.Float64("t", ev.ActualT),
		zap.Float64("offset_ms", f.OffsetMs),
		zap.Bool("hit", f.IsHit),
	)
}

// Feedback returns the latest feedback while it is still visible.
func (s *Session) Feedback(now time.Time) (*game.Feedback, bool) {
	if nil == s.feedback || now.Sub(s.feedback.CreatedAt) >= FeedbackTTL {
		return nil, false
	}
	return s.feedback, true
}

func (s *Session) Tally() game.Tally {
	if nil == s.scorer {
		return game.Tally{}
	}
	return s.scorer.Tally(s.current, s.recorder.Events())
}

func (s *Session) Next() (game.ExpectedEvent, bool) {
	if nil == s.scorer {
		return game.ExpectedEvent{}, false
	}
	return s.scorer.Next(s.current)
}

func (s *Session) Leniency() *game.LeniencyConfig {
	return s.leniency
}

func (s *Session) Inputs() []game.InputEvent {
	return s.recorder.Events()
}

// End stops play. Further calls, and calls outside play, do nothing.
func (s *Session) End() bool {
	if s.ending || s.state != Playing {
		return false
	}
	s.running = false
	s.cues.Stop()
	if nil != s.music {
		if err := s.music.Pause(); nil != err {
			s.alog.Warn("unable to rewind music", zap.Error(err))
		}
	}
	s.transport.Stop()
	s.ending = true

	s.endTime = s.current
	s.state = Ended
	s.alog.Info("attempt ended",
		zap.Float64("end_time", s.endTime),
		zap.Int("inputs", len(s.recorder.Events())),
	)
	return true
}

func (s *Session) request() game.EvaluationRequest {
	end := s.endTime
	return game.EvaluationRequest{
		MapName:       s.m.Name,
		HitWindowMs:   s.opts.HitWindowMs,
		InputEvents:   s.recorder.Snapshot(),
		EndTime:       &end,
		PressOnlyMode: s.opts.PressOnly,
	}
}

// Finish asks the evaluator for the result of the ended attempt. The
// evaluator is called once per attempt; a failure drops the session back
// to idle with the map still loaded.
func (s *Session) Finish(ctx context.Context) (*game.Result, error) {
	if s.state != Ended {
		return nil, fmt.Errorf("finish during %v: %w", s.state, ErrState)
	}
	if s.evaluated {
		if nil == s.result {
			return nil, fmt.Errorf("attempt %s already failed evaluation: %w", s.attempt, ErrState)
		}
		return s.result, nil
	}
	s.evaluated = true

	res, err := s.cfg.Evaluator.Evaluate(ctx, s.request())
	if nil != err {
		s.alog.Error("evaluation failed", zap.Error(err))
		s.state = Idle
		return nil, err
	}
	s.result = res
	s.alog.Info("attempt evaluated",
		zap.Float64("completion", res.Completion),
		zap.Float64("hits", res.Hits),
		zap.Float64("misses", res.Misses),
	)
	return res, nil
}

func (s *Session) Result() *game.Result {
	return s.result
}

// Export renders the evaluated attempt as a file.
func (s *Session) Export(ctx context.Context) (*game.Export, error) {
	if s.state != Ended || nil == s.result {
		return nil, fmt.Errorf("export without a result: %w", ErrState)
	}
	return s.cfg.Evaluator.Export(ctx, s.request())
}

// Close releases the loaded music. An attempt in play is ended first.
func (s *Session) Close() {
	s.End()
	s.closeMusic()
}
