package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/eiannone/keyboard"
	"go.uber.org/zap"

	"git.lost.host/meutraa/gdpractice/internal/game"
	"git.lost.host/meutraa/gdpractice/internal/input"
	"git.lost.host/meutraa/gdpractice/internal/render"
	"git.lost.host/meutraa/gdpractice/internal/session"
	"git.lost.host/meutraa/gdpractice/internal/theme"
	"git.lost.host/meutraa/gdpractice/internal/ticks"
)

const (
	statusTTL      = 3 * time.Second
	requestTimeout = 20 * time.Second
)

type stampedKey struct {
	keyboard.KeyEvent
	At time.Time
}

// stamp records when each key arrived, so that a slow frame does not shift
// input times.
func stamp(keys <-chan keyboard.KeyEvent) <-chan stampedKey {
	out := make(chan stampedKey, cap(keys))
	go func() {
		defer close(out)
		for key := range keys {
			out <- stampedKey{KeyEvent: key, At: time.Now()}
		}
	}()
	return out
}

// evaluation is a Finish call running off the frame loop.
type evaluation struct {
	done   chan error
	cancel context.CancelFunc
}

// Program drives the session from the frame loop. While an evaluation is
// in flight the session belongs to it and the frame loop leaves it alone.
type Program struct {
	Session   *session.Session
	Renderer  render.Renderer
	Theme     theme.Theme
	Log       *zap.Logger
	Keys      <-chan stampedKey
	Device    <-chan *input.Event // nil when playing from the terminal keyboard
	Scroll    float64
	Muted     bool
	ExportDir string

	width, height int
	lane          render.Lane
	laneRow       int
	drawn         session.State
	drawnAttempt  string
	finished      bool
	pending       *evaluation
	failed        error
	err           error
}

func (p *Program) resize() {
	w, h := p.Renderer.Size()
	if w == p.width && h == p.height {
		return
	}
	p.width, p.height = w, h
	p.laneRow = h / 2
	p.lane = render.Lane{Width: w, Target: w / 5, Scroll: p.Scroll}
	p.Renderer.Clear()
}

func (p *Program) status(message string) {
	p.Renderer.AddDecoration(2, p.height, message+"\033[K", statusTTL)
}

// line writes text at the start of a row and clears the rest of it.
func (p *Program) line(row int, text string) {
	p.Renderer.Fill(row, 2, text+"\033[K")
}

// Frame and the evaluation it starts are the only callers of the session.
// Inputs are applied before the session steps so that they are judged
// against the frame they arrived in.
func (p *Program) Frame(now time.Time) bool {
	p.resize()
	if nil != p.pending {
		return p.await()
	}
	if !p.drainInput(now) {
		return false
	}
	t := p.Session.Step(now)

	state := p.Session.State()
	if state != p.drawn || p.Session.Attempt() != p.drawnAttempt {
		p.Renderer.Clear()
		p.drawn, p.drawnAttempt = state, p.Session.Attempt()
	}

	switch state {
	case session.Idle:
		p.drawIdle()
	case session.LeadIn:
		p.drawCountdown()
	case session.Playing:
		p.drawPlay(now, t)
	case session.Ended:
		if !p.finished {
			p.finish()
			return true
		}
		p.drawResults()
	}
	return true
}

func (p *Program) drainInput(now time.Time) bool {
	for {
		select {
		case ev := <-p.Device:
			p.deviceEvent(ev)
		case key, ok := <-p.Keys:
			if !ok {
				p.err = errors.New("keyboard closed")
				return false
			}
			if !p.keyEvent(key, now) {
				return false
			}
		default:
			return true
		}
	}
}

func (p *Program) deviceEvent(ev *input.Event) {
	if ev.Action != input.Button || p.Session.State() != session.Playing {
		return
	}
	if ev.Pressed {
		p.Session.Press(ev.Time)
	} else if ev.Released {
		p.Session.Release(ev.Time)
	}
}

func (p *Program) keyEvent(key stampedKey, now time.Time) bool {
	if nil != key.Err {
		p.err = key.Err
		return false
	}
	if key.Key == keyboard.KeyCtrlC {
		return false
	}
	ev := input.FromKey(key.KeyEvent, key.At)
	s := p.Session

	switch s.State() {
	case session.Playing:
		if nil == ev {
			return true
		}
		switch ev.Action {
		case input.Cancel:
			s.End()
		case input.Button:
			// The device reports the button itself
			if nil == p.Device {
				s.Tap(ev.Time)
			}
		}
	case session.LeadIn:
		if nil != ev && ev.Action == input.Cancel {
			s.CancelCountdown()
		}
	case session.Idle, session.Ended:
		switch {
		case nil != ev && ev.Action == input.Cancel, key.Rune == 'q':
			return false
		case nil != ev && ev.Action == input.Button, key.Rune == 'r':
			p.finished, p.failed = false, nil
			if err := s.Retry(now); nil != err {
				p.status(err.Error())
			}
		case key.Rune == 'e' && s.State() == session.Ended:
			p.export()
		}
	}
	return true
}

func (p *Program) finish() {
	p.finished = true
	p.line(p.laneRow, p.Theme.RenderHint("evaluating..."))

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	ev := &evaluation{done: make(chan error, 1), cancel: cancel}
	p.pending = ev
	go func() {
		_, err := p.Session.Finish(ctx)
		ev.done <- err
	}()
}

// await keeps the loop responsive until the evaluation returns. Esc
// abandons it, which leaves the session idle.
func (p *Program) await() bool {
	for {
		select {
		case err := <-p.pending.done:
			p.pending.cancel()
			p.pending = nil
			p.failed = err
			p.Renderer.Clear()
			return true
		case <-p.Device:
		case key, ok := <-p.Keys:
			switch {
			case !ok:
				p.err = errors.New("keyboard closed")
			case nil != key.Err:
				p.err = key.Err
			case key.Key == keyboard.KeyCtrlC:
			default:
				if ev := input.FromKey(key.KeyEvent, key.At); nil != ev && ev.Action == input.Cancel {
					p.pending.cancel()
				}
				continue
			}
			p.pending.cancel()
			<-p.pending.done
			p.pending = nil
			return false
		default:
			return true
		}
	}
}

func (p *Program) export() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	export, err := p.Session.Export(ctx)
	if nil != err {
		p.Log.Warn("export failed", zap.Error(err))
		p.status("export failed: " + err.Error())
		return
	}
	file := filepath.Join(p.ExportDir, filepath.Base(export.Filename))
	if err := os.WriteFile(file, []byte(export.Content), 0o644); nil != err {
		p.status("unable to write " + file + ": " + err.Error())
		return
	}
	p.Log.Info("results exported", zap.String("file", file))
	p.status("exported " + file)
}

func (p *Program) drawIdle() {
	m := p.Session.Map()
	th := p.Theme
	title := m.Name
	if p.Session.HasMusic() {
		title += " ♪"
	}
	p.line(2, th.RenderTitle(title))
	p.line(3, th.RenderLabel(fmt.Sprintf("%v events  %.0f fps  %.1fs", len(m.Events), m.FPS, m.Duration)))
	if l := p.Session.Leniency(); nil != l {
		p.line(4, th.RenderLabel(fmt.Sprintf("window %s / %s  %d custom",
			ticks.Format(-l.DefaultEarlyMs, m.FPS), ticks.Format(l.DefaultLateMs, m.FPS), len(l.Custom))))
	}
	if nil != p.failed {
		p.line(p.laneRow-2, th.RenderFeedback(&game.Feedback{OffsetMs: 1}, "evaluation failed: "+p.failed.Error()))
	}
	p.line(p.laneRow, th.RenderHint("space to start, q to quit"))
}

func (p *Program) drawCountdown() {
	remaining := p.Session.Countdown()
	p.line(p.laneRow, p.Theme.RenderValue(fmt.Sprintf("%.1f", remaining.Seconds())))
}

func (p *Program) header(t float64) {
	th := p.Theme
	opts := p.Session.Options()
	mode := ""
	if opts.PressOnly {
		mode += "  press only"
	}
	if p.Muted {
		mode += "  muted"
	}
	p.line(1, th.RenderLabel("time ")+th.RenderValue(fmt.Sprintf("%7.3fs", t))+
		th.RenderLabel(fmt.Sprintf("  x%.2f%s", opts.Speed, mode)))

	tally := p.Session.Tally()
	p.line(2, th.RenderLabel("judged ")+th.RenderValue(fmt.Sprintf("%d/%d", tally.Judged, tally.Total))+
		th.RenderLabel("  hit ")+th.RenderValue(fmt.Sprint(tally.Hit))+
		th.RenderLabel("  miss ")+th.RenderValue(fmt.Sprint(tally.Miss)))
}

func (p *Program) drawPlay(now time.Time, t float64) {
	th := p.Theme
	m := p.Session.Map()
	p.header(t)

	from, to := p.lane.Window(t)
	active := render.Advance(m, from, to)
	p.Renderer.DrawLane(p.laneRow, p.lane.Row(active, t), th)

	if f, ok := p.Session.Feedback(now); ok {
		verdict := "HIT"
		if !f.IsHit {
			verdict = "LATE"
			if f.Early() {
				verdict = "EARLY"
			}
		}
		p.line(p.laneRow-2, th.RenderFeedback(f, verdict+" "+ticks.Format(f.OffsetMs, m.FPS)))
	} else {
		p.line(p.laneRow-2, "")
	}

	if next, ok := p.Session.Next(); ok {
		kind := "press"
		if next.Kind == game.Release {
			kind = "release"
		}
		p.line(p.laneRow+2, th.RenderHint(fmt.Sprintf("next %-7s frame %-6d %.3fs", kind, next.Frame, next.T)))
	} else {
		p.line(p.laneRow+2, "")
	}
}

func (p *Program) drawResults() {
	res := p.Session.Result()
	if nil == res {
		return
	}
	th := p.Theme
	m := p.Session.Map()
	value := func(row int, label, v string) {
		p.line(row, th.RenderLabel(fmt.Sprintf("%12s  ", label))+th.RenderValue(v))
	}

	p.line(2, th.RenderTitle("results "+m.Name))
	value(4, "completion", fmt.Sprintf("%.1f%%", res.Completion*100))
	value(5, "hits", fmt.Sprint(res.Hits))
	value(6, "misses", fmt.Sprint(res.Misses))
	value(7, "mean early", ticks.Format(-math.Abs(res.MeanEarly), m.FPS))
	value(8, "mean late", ticks.Format(math.Abs(res.MeanLate), m.FPS))

	row := 10
	for _, d := range res.DetailedResults {
		if row >= p.height-2 {
			break
		}
		offset := "-"
		if nil != d.OffsetMs {
			offset = ticks.Format(*d.OffsetMs, m.FPS)
		}
		text := fmt.Sprintf("%4d  %-4s  frame %-6d  %-4s  %s", d.Idx, d.Kind, d.ExpectedFrame, d.Verdict, offset)
		if d.Verdict == game.VerdictHit {
			p.line(row, th.RenderFeedback(&game.Feedback{IsHit: true}, text))
		} else {
			p.line(row, th.RenderLabel(text))
		}
		row++
	}
	p.line(p.height-1, th.RenderHint("r retry  e export  q quit"))
}
