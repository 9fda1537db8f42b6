package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/faiface/beep"
	"go.uber.org/zap"

	"git.lost.host/meutraa/gdpractice/internal/api"
	"git.lost.host/meutraa/gdpractice/internal/audio"
	"git.lost.host/meutraa/gdpractice/internal/config"
	"git.lost.host/meutraa/gdpractice/internal/game"
	"git.lost.host/meutraa/gdpractice/internal/input"
	"git.lost.host/meutraa/gdpractice/internal/library"
	"git.lost.host/meutraa/gdpractice/internal/logging"
	"git.lost.host/meutraa/gdpractice/internal/parser"
	"git.lost.host/meutraa/gdpractice/internal/render"
	"git.lost.host/meutraa/gdpractice/internal/session"
	"git.lost.host/meutraa/gdpractice/internal/theme"
)

const (
	sampleRate    = beep.SampleRate(48000)
	speakerBuffer = 10 * time.Millisecond
	httpTimeout   = 15 * time.Second
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if nil != err {
		log.Fatalln(err)
	}
	if err := run(cfg); nil != err {
		log.Fatalln(err)
	}
}

// openSource picks where maps come from: a local file, or the server behind
// the sqlite cache.
func openSource(cfg *config.Config, psr *parser.DefaultParser, client *api.Client, logger *zap.Logger) (api.Source, func(), error) {
	if cfg.MapFile != "" {
		return library.NewFiles(psr, cfg.MapFile, cfg.LeniencyFile, cfg.HitWindowMs), func() {}, nil
	}

	var upstream api.Source = client
	if cfg.Offline {
		upstream = nil
	}
	if cfg.Cache == "" {
		if nil == upstream {
			return nil, nil, fmt.Errorf("offline play needs a cache: %w", game.ErrInvalidConfiguration)
		}
		return upstream, func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Cache), 0o755); nil != err {
		return nil, nil, fmt.Errorf("unable to create cache directory: %w", err)
	}
	cache, err := library.Open(cfg.Cache, upstream, logger)
	if nil != err {
		if nil == upstream {
			return nil, nil, err
		}
		logger.Warn("map cache unavailable", zap.String("path", cfg.Cache), zap.Error(err))
		return upstream, func() {}, nil
	}
	return cache, func() {
		if err := cache.Close(); nil != err {
			logger.Warn("unable to close map cache", zap.Error(err))
		}
	}, nil
}

// chooseMap lists the available maps and reads a number followed by enter.
func chooseMap(ctx context.Context, src api.Source, keys <-chan keyboard.KeyEvent) (string, error) {
	maps, err := src.Maps(ctx)
	if nil != err {
		return "", err
	}
	if len(maps) == 0 {
		return "", fmt.Errorf("no maps available: %w", game.ErrInvalidConfiguration)
	}
	if len(maps) == 1 {
		return maps[0].Name, nil
	}

	for i, m := range maps {
		music := ""
		if m.HasMusic {
			music = "♪"
		}
		fmt.Printf("%3v) %5v events  %6.1fs  %1v %v\r\n", i, m.Events, m.Duration, music, m.Name)
	}
	fmt.Print("map: ")

	entered := ""
	for key := range keys {
		switch {
		case key.Err != nil:
			return "", key.Err
		case key.Key == keyboard.KeyEsc || key.Key == keyboard.KeyCtrlC:
			return "", fmt.Errorf("no map chosen")
		case key.Key == keyboard.KeyEnter:
			index, err := strconv.Atoi(entered)
			if nil == err && index >= 0 && index < len(maps) {
				fmt.Print("\r\n")
				return maps[index].Name, nil
			}
			entered = ""
			fmt.Print("\r\033[Kmap: ")
		case key.Key == keyboard.KeyBackspace || key.Key == keyboard.KeyBackspace2:
			if len(entered) > 0 {
				entered = entered[:len(entered)-1]
				fmt.Print("\b \b")
			}
		case key.Rune >= '0' && key.Rune <= '9':
			entered += string(key.Rune)
			fmt.Print(string(key.Rune))
		}
	}
	return "", fmt.Errorf("keyboard closed")
}

func run(cfg *config.Config) error {
	logger, err := logging.New(cfg.Log, cfg.Debug)
	if nil != err {
		return err
	}
	defer logger.Sync()
	logger.Info("starting", zap.String("version", config.Version), zap.String("server", cfg.Server))

	// Ensure our Default implementations are used as interfaces
	var r render.Renderer = &render.DefaultRenderer{}
	var th theme.Theme = &theme.DefaultTheme{}
	psr, err := parser.New()
	if nil != err {
		return err
	}

	client, err := api.New(cfg.Server, psr, httpTimeout, logger)
	if nil != err {
		return err
	}
	src, closeSource, err := openSource(cfg, psr, client, logger)
	if nil != err {
		return err
	}
	defer closeSource()

	keyChannel, err := keyboard.GetKeys(128)
	if nil != err {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); nil != err {
			logger.Warn("unable to close keyboard", zap.Error(err))
		}
	}()

	ctx := context.Background()
	name := cfg.Map
	if name == "" {
		if name, err = chooseMap(ctx, src, keyChannel); nil != err {
			return err
		}
	}

	var devChannel chan *input.Event
	pressOnly := cfg.PressOnly
	if cfg.Device != "" {
		devChannel = make(chan *input.Event, 128)
		if err := input.ReadDevice(cfg.Device, devChannel, logger); nil != err {
			return fmt.Errorf("unable to open input device: %w", err)
		}
	} else if !pressOnly {
		logger.Info("terminal input cannot see releases, judging presses only")
		pressOnly = true
	}

	var out audio.Output
	if cfg.Beep || cfg.Music {
		if out, err = audio.OpenSpeaker(sampleRate, speakerBuffer); nil != err {
			logger.Warn("playing muted", zap.Error(err))
			out = nil
		}
	}

	var fetcher session.MusicFetcher
	if cfg.Music && cfg.MapFile == "" && !cfg.Offline {
		fetcher = client
	}
	s, err := session.New(session.Config{
		Source:    src,
		Evaluator: client,
		Fetcher:   fetcher,
		Output:    out,
		Log:       logger,
	}, session.Options{
		Speed:       cfg.Speed,
		Start:       cfg.Start,
		End:         cfg.End,
		PressOnly:   pressOnly,
		Countdown:   cfg.Delay,
		PreRoll:     cfg.PreRoll,
		HitWindowMs: cfg.HitWindowMs,
		Beep:        cfg.Beep,
		Music:       cfg.Music,
		Volume:      cfg.Volume,
	})
	if nil != err {
		return err
	}
	defer s.Close()

	if err := s.Load(ctx, name); nil != err {
		return err
	}

	p := &Program{
		Session:   s,
		Renderer:  r,
		Theme:     th,
		Log:       logger,
		Keys:      stamp(keyChannel),
		Device:    devChannel,
		Scroll:    cfg.Scroll,
		Muted:     nil == out,
		ExportDir: ".",
	}

	if err := r.Init(); nil != err {
		return err
	}
	defer func() {
		// Restore the terminal state
		r.Deinit()
	}()

	r.Loop(cfg.FramePeriod, p.Frame)
	return p.err
}
