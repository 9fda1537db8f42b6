// Package api talks to the map library and the authoritative evaluator.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"git.lost.host/meutraa/gdpractice/internal/game"
	"git.lost.host/meutraa/gdpractice/internal/parser"
)

// ErrNotFound is returned for a 404, which for music means "no track".
var ErrNotFound = errors.New("not found")

// LoadOptions are the macro extraction parameters of a map load.
type LoadOptions struct {
	Btn           int
	SecondPlayer  bool
	HoldMinFrames int
}

var DefaultLoadOptions = LoadOptions{Btn: 1, SecondPlayer: false, HoldMinFrames: 3}

type Client struct {
	base   string
	http   *http.Client
	parser parser.Parser
	opts   LoadOptions
	log    *zap.Logger
}

func New(server string, p parser.Parser, timeout time.Duration, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(server)
	if nil != err || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: %w", server, game.ErrInvalidConfiguration)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if nil == log {
		log = zap.NewNop()
	}
	return &Client{
		base:   strings.TrimSuffix(server, "/") + "/api",
		http:   &http.Client{Timeout: timeout},
		parser: p,
		opts:   DefaultLoadOptions,
		log:    log,
	}, nil
}

// Base is the server root, used to resolve relative asset urls.
func (c *Client) Base() string {
	return strings.TrimSuffix(c.base, "/api")
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (io.ReadCloser, error) {
	var r io.Reader
	if nil != body {
		data, err := json.Marshal(body)
		if nil != err {
			return nil, err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if nil != err {
		return nil, err
	}
	if nil != body {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if nil != err {
		return nil, fmt.Errorf("%s %s: %v: %w", method, path, err, game.ErrTransientIO)
	}
	c.log.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrNotFound, game.ErrTransientIO)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()
		return nil, fmt.Errorf("%s %s: %s: %w", method, path, detail(res), game.ErrTransientIO)
	}
	return res.Body, nil
}

// detail extracts the server's error message when it sent one.
func detail(res *http.Response) string {
	var e struct {
		Detail string `json:"detail"`
	}
	data, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err := json.Unmarshal(data, &e); nil == err && e.Detail != "" {
		return e.Detail
	}
	return res.Status
}

func (c *Client) Maps(ctx context.Context) ([]game.MapInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/maps", nil)
	if nil != err {
		return nil, err
	}
	defer body.Close()
	var maps []game.MapInfo
	if err := json.NewDecoder(body).Decode(&maps); nil != err {
		return nil, fmt.Errorf("decode map list: %v: %w", err, game.ErrTransientIO)
	}
	return maps, nil
}

func (c *Client) Load(ctx context.Context, name string) (*game.Map, error) {
	q := url.Values{}
	q.Set("btn", fmt.Sprint(c.opts.Btn))
	q.Set("second_player", fmt.Sprint(c.opts.SecondPlayer))
	q.Set("hold_min_frames", fmt.Sprint(c.opts.HoldMinFrames))
	body, err := c.do(ctx, http.MethodPost, "/maps/"+url.PathEscape(name)+"/load?"+q.Encode(), nil)
	if nil != err {
		return nil, err
	}
	defer body.Close()
	m, err := c.parser.ParseMap(name, body)
	if nil != err {
		return nil, err
	}
	m.Name = name
	return m, nil
}

func (c *Client) Leniency(ctx context.Context, name string) (*game.LeniencyConfig, error) {
	body, err := c.do(ctx, http.MethodGet, "/maps/"+url.PathEscape(name)+"/leniency", nil)
	if nil != err {
		return nil, err
	}
	defer body.Close()
	return c.parser.ParseLeniency(body)
}

// Music reports the audio asset of a map. A missing asset is not an error.
func (c *Client) Music(ctx context.Context, name string) (game.MusicInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/music/"+url.PathEscape(name), nil)
	if errors.Is(err, ErrNotFound) {
		return game.MusicInfo{}, nil
	}
	if nil != err {
		return game.MusicInfo{}, err
	}
	defer body.Close()
	var info game.MusicInfo
	if err := json.NewDecoder(body).Decode(&info); nil != err {
		return game.MusicInfo{}, fmt.Errorf("decode music info: %v: %w", err, game.ErrTransientIO)
	}
	return info, nil
}

// FetchMusic downloads a music asset. Relative urls are resolved against
// the server.
func (c *Client) FetchMusic(ctx context.Context, assetURL string) ([]byte, error) {
	if strings.HasPrefix(assetURL, "/") {
		assetURL = c.Base() + assetURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if nil != err {
		return nil, err
	}
	res, err := c.http.Do(req)
	if nil != err {
		return nil, fmt.Errorf("fetch music: %v: %w", err, game.ErrTransientIO)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch music: %s: %w", res.Status, game.ErrTransientIO)
	}
	return io.ReadAll(res.Body)
}

func (c *Client) request(req game.EvaluationRequest) game.EvaluationRequest {
	req.Btn = c.opts.Btn
	req.SecondPlayer = c.opts.SecondPlayer
	req.HoldMinFrames = c.opts.HoldMinFrames
	if nil == req.InputEvents {
		req.InputEvents = []game.InputEvent{}
	}
	return req
}

func (c *Client) Evaluate(ctx context.Context, req game.EvaluationRequest) (*game.Result, error) {
	body, err := c.do(ctx, http.MethodPost, "/results/evaluate", c.request(req))
	if nil != err {
		return nil, err
	}
	defer body.Close()
	return c.parser.ParseResult(body)
}

func (c *Client) Export(ctx context.Context, req game.EvaluationRequest) (*game.Export, error) {
	body, err := c.do(ctx, http.MethodPost, "/results/export", c.request(req))
	if nil != err {
		return nil, err
	}
	defer body.Close()
	var export game.Export
	if err := json.NewDecoder(body).Decode(&export); nil != err {
		return nil, fmt.Errorf("decode export: %v: %w", err, game.ErrTransientIO)
	}
	return &export, nil
}
