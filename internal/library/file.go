package library

import (
	"context"
	"fmt"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

type fileParser interface {
	ParseFile(file string) (*game.Map, error)
	ParseLeniencyFile(file string) (*game.LeniencyConfig, error)
}

// Files serves a single map stored on disk.
type Files struct {
	parser       fileParser
	mapFile      string
	leniencyFile string // optional
	windowMs     float64

	loaded *game.Map
}

// NewFiles serves mapFile. Without a leniency file every event is judged
// with a symmetric window of windowMs.
func NewFiles(p fileParser, mapFile, leniencyFile string, windowMs float64) *Files {
	return &Files{parser: p, mapFile: mapFile, leniencyFile: leniencyFile, windowMs: windowMs}
}

func (f *Files) load() (*game.Map, error) {
	if nil == f.loaded {
		m, err := f.parser.ParseFile(f.mapFile)
		if nil != err {
			return nil, err
		}
		f.loaded = m
	}
	return f.loaded, nil
}

func (f *Files) Maps(ctx context.Context) ([]game.MapInfo, error) {
	m, err := f.load()
	if nil != err {
		return nil, err
	}
	return []game.MapInfo{{
		Name:     m.Name,
		Events:   len(m.Events),
		FPS:      m.FPS,
		Duration: m.Duration,
	}}, nil
}

func (f *Files) Load(ctx context.Context, name string) (*game.Map, error) {
	m, err := f.load()
	if nil != err {
		return nil, err
	}
	if name != "" && name != m.Name {
		return nil, fmt.Errorf("map %s is not in %s: %w", name, f.mapFile, game.ErrInvalidConfiguration)
	}
	return m, nil
}

func (f *Files) Leniency(ctx context.Context, name string) (*game.LeniencyConfig, error) {
	if f.leniencyFile == "" {
		c := &game.LeniencyConfig{DefaultEarlyMs: f.windowMs, DefaultLateMs: f.windowMs}
		return c, c.Validate()
	}
	return f.parser.ParseLeniencyFile(f.leniencyFile)
}

func (f *Files) Music(ctx context.Context, name string) (game.MusicInfo, error) {
	return game.MusicInfo{}, nil
}
