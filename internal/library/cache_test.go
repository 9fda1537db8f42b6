package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"git.lost.host/meutraa/gdpractice/internal/game"
	"git.lost.host/meutraa/gdpractice/internal/parser"
	"git.lost.host/meutraa/gdpractice/internal/testdata"
)

type fakeSource struct {
	err   error
	loads int
}

func (s *fakeSource) Maps(ctx context.Context) ([]game.MapInfo, error) {
	if nil != s.err {
		return nil, s.err
	}
	return []game.MapInfo{{Name: "stereo-madness", Events: 6, FPS: 240}}, nil
}

func (s *fakeSource) Load(ctx context.Context, name string) (*game.Map, error) {
	s.loads++
	if nil != s.err {
		return nil, s.err
	}
	return testdata.GetMap()
}

func (s *fakeSource) Leniency(ctx context.Context, name string) (*game.LeniencyConfig, error) {
	if nil != s.err {
		return nil, s.err
	}
	return testdata.GetLeniency()
}

func (s *fakeSource) Music(ctx context.Context, name string) (game.MusicInfo, error) {
	return game.MusicInfo{Available: true, URL: "/static/" + name + ".mp3"}, nil
}

func openCache(t *testing.T, upstream *fakeSource) (*Cache, string) {
	file := filepath.Join(t.TempDir(), "cache.db")
	var c *Cache
	var err error
	if nil == upstream {
		c, err = Open(file, nil, nil)
	} else {
		c, err = Open(file, upstream, nil)
	}
	if nil != err {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c, file
}

func TestCacheServesLastGoodCopy(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	c, _ := openCache(t, src)

	fresh, err := c.Load(ctx, "stereo-madness")
	if nil != err {
		t.Fatal(err)
	}
	if _, err := c.Leniency(ctx, "stereo-madness"); nil != err {
		t.Fatal(err)
	}

	src.err = fmt.Errorf("connection refused: %w", game.ErrTransientIO)
	cached, err := c.Load(ctx, "stereo-madness")
	if nil != err {
		t.Fatal(err)
	}
	if len(cached.Events) != len(fresh.Events) || cached.FPS != fresh.FPS {
		t.Errorf("cached map differs: %+v vs %+v", cached, fresh)
	}
	for i := range fresh.Events {
		if cached.Events[i] != fresh.Events[i] {
			t.Errorf("event %v: %+v vs %+v", i, cached.Events[i], fresh.Events[i])
		}
	}

	l, err := c.Leniency(ctx, "stereo-madness")
	if nil != err {
		t.Fatal(err)
	}
	if l.Resolve(3).EarlyMs != 10 {
		t.Errorf("custom override lost: %+v", l.Resolve(3))
	}
	if src.loads != 2 {
		t.Errorf("upstream should still be tried first, loads = %v", src.loads)
	}
}

func TestCacheDoesNotMaskBadPayloads(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	c, _ := openCache(t, src)
	if _, err := c.Load(ctx, "stereo-madness"); nil != err {
		t.Fatal(err)
	}

	src.err = fmt.Errorf("bad map: %w", game.ErrInvalidConfiguration)
	if _, err := c.Load(ctx, "stereo-madness"); !errors.Is(err, game.ErrInvalidConfiguration) {
		t.Errorf("expected invalid configuration, got %v", err)
	}
}

func TestCacheMissIsTransient(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("timeout: %w", game.ErrTransientIO)}
	c, _ := openCache(t, src)
	if _, err := c.Load(context.Background(), "unknown"); !errors.Is(err, game.ErrTransientIO) {
		t.Errorf("expected transient io, got %v", err)
	}
}

func TestOfflineUsesCacheOnly(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	online, file := openCache(t, src)
	if _, err := online.Maps(ctx); nil != err {
		t.Fatal(err)
	}
	if _, err := online.Load(ctx, "stereo-madness"); nil != err {
		t.Fatal(err)
	}
	online.Close()

	offline, err := Open(file, nil, nil)
	if nil != err {
		t.Fatal(err)
	}
	defer offline.Close()

	maps, err := offline.Maps(ctx)
	if nil != err || len(maps) != 1 {
		t.Fatalf("maps %v, err %v", maps, err)
	}
	if _, err := offline.Load(ctx, "stereo-madness"); nil != err {
		t.Error(err)
	}
	if _, err := offline.Leniency(ctx, "stereo-madness"); !errors.Is(err, game.ErrTransientIO) {
		t.Errorf("uncached leniency should be transient, got %v", err)
	}
	if info, err := offline.Music(ctx, "stereo-madness"); nil != err || info.Available {
		t.Errorf("offline music should be unavailable, got %+v %v", info, err)
	}
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{}
	c, _ := openCache(t, src)
	if _, err := c.Load(ctx, "stereo-madness"); nil != err {
		t.Fatal(err)
	}
	if _, err := c.db.Exec("update payloads set data = ? where kind = ?", []byte(`{"events":[]}`), kindMap); nil != err {
		t.Fatal(err)
	}

	src.err = fmt.Errorf("down: %w", game.ErrTransientIO)
	if _, err := c.Load(ctx, "stereo-madness"); !errors.Is(err, game.ErrTransientIO) {
		t.Errorf("expected checksum mismatch to miss, got %v", err)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	mapFile := filepath.Join(dir, "stereo-madness.json")
	if err := os.WriteFile(mapFile, testdata.MapJSON, 0o644); nil != err {
		t.Fatal(err)
	}
	p, err := parser.New()
	if nil != err {
		t.Fatal(err)
	}
	f := NewFiles(p, mapFile, "", 18)
	ctx := context.Background()

	maps, err := f.Maps(ctx)
	if nil != err || len(maps) != 1 {
		t.Fatalf("maps %v, err %v", maps, err)
	}
	if _, err := f.Load(ctx, maps[0].Name); nil != err {
		t.Error(err)
	}
	if _, err := f.Load(ctx, "other"); !errors.Is(err, game.ErrInvalidConfiguration) {
		t.Errorf("expected invalid configuration, got %v", err)
	}
	l, err := f.Leniency(ctx, maps[0].Name)
	if nil != err {
		t.Fatal(err)
	}
	if w := l.Resolve(0); w.EarlyMs != 18 || w.LateMs != 18 {
		t.Errorf("unexpected window %+v", w)
	}
}
