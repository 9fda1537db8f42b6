// Package library serves maps from the network, a local cache, or files.
package library

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"git.lost.host/meutraa/gdpractice/internal/api"
	"git.lost.host/meutraa/gdpractice/internal/game"
)

const (
	kindList     = "maps"
	kindMap      = "map"
	kindLeniency = "leniency"
)

// Cache keeps the last good copy of every map and leniency config it has
// seen, and serves them when the upstream source fails. It never stores
// attempt data.
type Cache struct {
	db       *sql.DB
	upstream api.Source // nil when offline
	log      *zap.Logger
	now      func() time.Time
}

func Open(file string, upstream api.Source, log *zap.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite3", file)
	if nil != err {
		return nil, err
	}

	initStatement := `
	create table if not exists payloads
	  (
		  kind text not null,
		  name text not null,
		  sum text not null,
		  fetched integer not null,
		  data blob not null,
		  primary key (kind, name)
	  );
	`
	if _, err = db.Exec(initStatement); nil != err {
		db.Close()
		return nil, fmt.Errorf("init cache %s: %w", file, err)
	}
	if nil == log {
		log = zap.NewNop()
	}
	return &Cache{db: db, upstream: upstream, log: log, now: time.Now}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (c *Cache) store(kind, name string, v interface{}) {
	data, err := json.Marshal(v)
	if nil != err {
		c.log.Warn("unable to marshal cache entry", zap.String("kind", kind), zap.String("name", name), zap.Error(err))
		return
	}
	_, err = c.db.Exec(
		"insert or replace into payloads(kind, name, sum, fetched, data) values(?, ?, ?, ?, ?)",
		kind, name, checksum(data), c.now().Unix(), data,
	)
	if nil != err {
		c.log.Warn("unable to write cache entry", zap.String("kind", kind), zap.String("name", name), zap.Error(err))
	}
}

// lookup decodes the cached payload into v. Corrupt rows count as misses.
func (c *Cache) lookup(kind, name string, v interface{}) bool {
	var sum string
	var data []byte
	var fetched int64
	err := c.db.QueryRow("select sum, fetched, data from payloads where kind = ? and name = ?", kind, name).
		Scan(&sum, &fetched, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if nil != err {
		c.log.Warn("unable to read cache entry", zap.String("kind", kind), zap.String("name", name), zap.Error(err))
		return false
	}
	if checksum(data) != sum {
		c.log.Warn("cache entry checksum mismatch", zap.String("kind", kind), zap.String("name", name))
		return false
	}
	if err := json.Unmarshal(data, v); nil != err {
		c.log.Warn("unable to unmarshal cache entry", zap.String("kind", kind), zap.String("name", name), zap.Error(err))
		return false
	}
	c.log.Info("serving cached copy",
		zap.String("kind", kind),
		zap.String("name", name),
		zap.Time("fetched", time.Unix(fetched, 0)),
	)
	return true
}

// fallback reports whether a failed upstream call may be answered from
// the cache. Only network trouble qualifies, never bad payloads.
func (c *Cache) fallback(err error) bool {
	return nil == c.upstream || errors.Is(err, game.ErrTransientIO)
}

func offline(kind, name string) error {
	return fmt.Errorf("%s %s not cached: %w", kind, name, game.ErrTransientIO)
}

func (c *Cache) Maps(ctx context.Context) ([]game.MapInfo, error) {
	var err error = offline(kindList, "")
	if nil != c.upstream {
		var maps []game.MapInfo
		if maps, err = c.upstream.Maps(ctx); nil == err {
			c.store(kindList, "", maps)
			return maps, nil
		}
	}
	if c.fallback(err) {
		var maps []game.MapInfo
		if c.lookup(kindList, "", &maps) {
			return maps, nil
		}
	}
	return nil, err
}

func (c *Cache) Load(ctx context.Context, name string) (*game.Map, error) {
	var err error = offline(kindMap, name)
	if nil != c.upstream {
		var m *game.Map
		if m, err = c.upstream.Load(ctx, name); nil == err {
			c.store(kindMap, name, m)
			return m, nil
		}
	}
	if c.fallback(err) {
		var m game.Map
		if c.lookup(kindMap, name, &m) {
			return &m, nil
		}
	}
	return nil, err
}

func (c *Cache) Leniency(ctx context.Context, name string) (*game.LeniencyConfig, error) {
	var err error = offline(kindLeniency, name)
	if nil != c.upstream {
		var l *game.LeniencyConfig
		if l, err = c.upstream.Leniency(ctx, name); nil == err {
			c.store(kindLeniency, name, l)
			return l, nil
		}
	}
	if c.fallback(err) {
		var l game.LeniencyConfig
		if c.lookup(kindLeniency, name, &l) {
			return &l, nil
		}
	}
	return nil, err
}

// Music is never cached, the track itself needs the network anyway.
func (c *Cache) Music(ctx context.Context, name string) (game.MusicInfo, error) {
	if nil == c.upstream {
		return game.MusicInfo{}, nil
	}
	return c.upstream.Music(ctx, name)
}
