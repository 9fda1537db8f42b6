package parser

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.lost.host/meutraa/gdpractice/internal/game"
	"git.lost.host/meutraa/gdpractice/internal/testdata"
)

func newParser(t *testing.T) *DefaultParser {
	t.Helper()
	p, err := New()
	if nil != err {
		t.Fatalf("unable to compile schemas: %v", err)
	}
	return p
}

func TestParseMap(t *testing.T) {
	p := newParser(t)
	m, err := p.ParseMap("fallback", bytes.NewReader(testdata.MapJSON))
	if nil != err {
		t.Fatalf("parse: %v", err)
	}
	if m.Name != "stereo-madness" || m.FPS != 240 || len(m.Events) != 6 || len(m.Notes) != 3 {
		t.Fatalf("unexpected map %+v", m)
	}
	if m.Events[3].Kind != game.Release || m.Events[3].Frame != 504 {
		t.Fatalf("unexpected event %+v", m.Events[3])
	}
}

func TestParseMapSortsEventsKeepingIdx(t *testing.T) {
	p := newParser(t)
	doc := `{"fps": 60, "events": [
		{"idx": 0, "kind": "down", "t": 2.0},
		{"idx": 1, "kind": "up", "t": 1.0}
	]}`
	m, err := p.ParseMap("unsorted", strings.NewReader(doc))
	if nil != err {
		t.Fatalf("parse: %v", err)
	}
	if m.Name != "unsorted" {
		t.Errorf("name = %q", m.Name)
	}
	if m.Events[0].Idx != 1 || m.Events[1].Idx != 0 {
		t.Errorf("events not sorted by time: %+v", m.Events)
	}
	if m.Duration != 2.0 {
		t.Errorf("duration = %v, expected the last event time", m.Duration)
	}
}

func TestParseMapRejectsInvalid(t *testing.T) {
	p := newParser(t)
	invalid := []string{
		`{"fps": 0, "events": []}`,
		`{"fps": -60, "events": []}`,
		`{"fps": 60, "events": [{"idx": 0, "kind": "sideways", "t": 1}]}`,
		`{"events": []}`,
		`not json`,
	}
	for _, doc := range invalid {
		if _, err := p.ParseMap("bad", strings.NewReader(doc)); !errors.Is(err, game.ErrInvalidConfiguration) {
			t.Errorf("%s: expected invalid configuration, got %v", doc, err)
		}
	}
}

func TestParseLeniency(t *testing.T) {
	p := newParser(t)
	c, err := p.ParseLeniency(bytes.NewReader(testdata.LeniencyJSON))
	if nil != err {
		t.Fatalf("parse: %v", err)
	}
	if got := c.Resolve(3); got != (game.Leniency{EarlyMs: 10, LateMs: 70}) {
		t.Errorf("idx 3 resolved to %+v", got)
	}
	if got := c.Resolve(5); got != (game.Leniency{EarlyMs: 50, LateMs: 120}) {
		t.Errorf("idx 5 resolved to %+v", got)
	}

	if _, err := p.ParseLeniency(strings.NewReader(`{"default_early_ms": -5, "default_late_ms": 10}`)); !errors.Is(err, game.ErrInvalidConfiguration) {
		t.Errorf("negative leniency accepted: %v", err)
	}
	if _, err := p.ParseLeniency(strings.NewReader(`{"default_early_ms": 5, "default_late_ms": 10, "custom": {"2": {"late_ms": -1}}}`)); !errors.Is(err, game.ErrInvalidConfiguration) {
		t.Errorf("negative custom leniency accepted: %v", err)
	}
}

func TestParseResult(t *testing.T) {
	p := newParser(t)
	doc := `{
		"completion": 0.5, "hits": 1, "misses": 1, "mean_early": -12.5, "mean_late": 0,
		"detailed_results": [
			{"idx": 0, "kind": "down", "expected_t": 1.0, "expected_frame": 240, "verdict": "hit", "offset_ms": -12.5, "actual_t": 0.9875},
			{"idx": 1, "kind": "up", "expected_t": 1.25, "expected_frame": 300, "verdict": "miss", "offset_ms": null, "actual_t": null}
		]
	}`
	res, err := p.ParseResult(strings.NewReader(doc))
	if nil != err {
		t.Fatalf("parse: %v", err)
	}
	if len(res.DetailedResults) != 2 || res.DetailedResults[1].ActualT != nil || *res.DetailedResults[0].OffsetMs != -12.5 {
		t.Fatalf("unexpected result %+v", res)
	}
	if _, err := p.ParseResult(strings.NewReader(`{"hits": 1}`)); nil == err {
		t.Fatalf("expected incomplete result to fail")
	}
}

func TestParseFile(t *testing.T) {
	p := newParser(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "practice.json")
	if err := os.WriteFile(file, []byte(`{"fps": 60, "events": []}`), 0o644); nil != err {
		t.Fatal(err)
	}
	m, err := p.ParseFile(file)
	if nil != err {
		t.Fatalf("parse file: %v", err)
	}
	if m.Name != "practice" {
		t.Errorf("name = %q, expected practice", m.Name)
	}
}
