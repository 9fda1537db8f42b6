package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eiannone/keyboard"

	"git.lost.host/meutraa/gdpractice/internal/game"
	"git.lost.host/meutraa/gdpractice/internal/render"
	"git.lost.host/meutraa/gdpractice/internal/session"
	"git.lost.host/meutraa/gdpractice/internal/testdata"
	"git.lost.host/meutraa/gdpractice/internal/theme"
)

type nullRenderer struct{}

func (nullRenderer) Init() error {
	return nil
}

func (nullRenderer) Deinit() error {
	return nil
}

func (nullRenderer) Size() (int, int) {
	return 80, 24
}

func (nullRenderer) Clear() {
}

func (nullRenderer) AddDecoration(col, row int, content string, ttl time.Duration) {
}

func (nullRenderer) Loop(period time.Duration, frame func(now time.Time) bool) {
}

func (nullRenderer) Fill(row, column int, message string) {
}

func (nullRenderer) DrawLane(row int, parts []render.Part, th theme.Theme) {
}

func (nullRenderer) Flush() {
}

type mapSource struct{}

func (mapSource) Maps(ctx context.Context) ([]game.MapInfo, error) {
	return nil, nil
}

func (mapSource) Load(ctx context.Context, name string) (*game.Map, error) {
	return testdata.GetMap()
}

func (mapSource) Leniency(ctx context.Context, name string) (*game.LeniencyConfig, error) {
	return testdata.GetLeniency()
}

func (mapSource) Music(ctx context.Context, name string) (game.MusicInfo, error) {
	return game.MusicInfo{}, nil
}

// slowEvaluator answers once release is closed, or gives up with ctx.
type slowEvaluator struct {
	release chan struct{}
}

func (e *slowEvaluator) Evaluate(ctx context.Context, req game.EvaluationRequest) (*game.Result, error) {
	select {
	case <-e.release:
		return &game.Result{Completion: 1}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *slowEvaluator) Export(ctx context.Context, req game.EvaluationRequest) (*game.Export, error) {
	return nil, errors.New("no export")
}

// endedProgram returns a program whose attempt has just ended.
func endedProgram(t *testing.T) (*Program, *slowEvaluator, chan stampedKey) {
	eval := &slowEvaluator{release: make(chan struct{})}
	s, err := session.New(session.Config{Source: mapSource{}, Evaluator: eval}, session.Options{Speed: 1})
	if nil != err {
		t.Fatal(err)
	}
	if err := s.Load(context.Background(), "stereo-madness"); nil != err {
		t.Fatal(err)
	}
	if err := s.BeginCountdown(time.Now()); nil != err {
		t.Fatal(err)
	}
	s.End()

	keys := make(chan stampedKey, 4)
	p := &Program{
		Session:  s,
		Renderer: nullRenderer{},
		Theme:    &theme.DefaultTheme{},
		Keys:     keys,
		Scroll:   2.5,
	}
	return p, eval, keys
}

// waitFor runs frames until the evaluation has been collected.
func waitFor(t *testing.T, p *Program) {
	deadline := time.Now().Add(5 * time.Second)
	for nil != p.pending {
		if time.Now().After(deadline) {
			t.Fatal("evaluation never returned")
		}
		if !p.Frame(time.Now()) {
			t.Fatal("frame loop stopped")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSlowEvaluationKeepsFramesRunning(t *testing.T) {
	p, eval, _ := endedProgram(t)

	p.Frame(time.Now())
	if nil == p.pending {
		t.Fatal("evaluation did not start")
	}
	for i := 0; i < 3; i++ {
		if !p.Frame(time.Now()) || nil == p.pending {
			t.Fatal("frame blocked on or dropped the evaluation")
		}
	}

	close(eval.release)
	waitFor(t, p)
	if nil != p.failed || nil == p.Session.Result() || p.Session.State() != session.Ended {
		t.Errorf("failed %v, result %+v, state %v", p.failed, p.Session.Result(), p.Session.State())
	}
}

func TestEscAbandonsEvaluation(t *testing.T) {
	p, _, keys := endedProgram(t)
	p.Frame(time.Now())

	keys <- stampedKey{KeyEvent: keyboard.KeyEvent{Key: keyboard.KeyEsc}, At: time.Now()}
	waitFor(t, p)
	if !errors.Is(p.failed, context.Canceled) {
		t.Errorf("failed %v", p.failed)
	}
	if p.Session.State() != session.Idle {
		t.Errorf("state %v, expected idle", p.Session.State())
	}
}

func TestCtrlCDuringEvaluationQuits(t *testing.T) {
	p, _, keys := endedProgram(t)
	p.Frame(time.Now())

	keys <- stampedKey{KeyEvent: keyboard.KeyEvent{Key: keyboard.KeyCtrlC}, At: time.Now()}
	if p.Frame(time.Now()) {
		t.Error("frame loop kept running")
	}
	if nil != p.pending {
		t.Error("evaluation left in flight")
	}
}
