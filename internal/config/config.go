// Package config parses the command line and the optional TOML file.
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

const Version = "0.3.0"

type Config struct {
	Map          string
	Server       string
	Speed        float64
	Start        *float64 // Seconds of game time
	End          *float64
	PressOnly    bool
	Delay        time.Duration // Countdown before the transport starts
	PreRoll      time.Duration // Transport lead in
	FramePeriod  time.Duration
	Scroll       float64 // Seconds of map visible ahead of the hit line
	Device       string  // evdev path, empty for the terminal keyboard
	Beep         bool
	Music        bool
	Volume       float64
	HitWindowMs  float64
	Cache        string
	Log          string
	Debug        bool
	Offline      bool
	MapFile      string
	LeniencyFile string
	ConfigFile   string
}

// configPath finds --config in args before kingpin runs, because the file
// supplies the defaults of every other flag.
func configPath(args []string) string {
	for i, a := range args {
		if a == "--" {
			break
		}
		if strings.HasPrefix(a, "--config=") {
			return strings.TrimPrefix(a, "--config=")
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return DefaultConfigPath()
}

// Parse builds the configuration from args (without the program name).
func Parse(args []string) (*Config, error) {
	path := configPath(args)
	file, err := LoadFile(path)
	if nil != err {
		return nil, err
	}
	defaults := file.defaults()
	def := func(name, fallback string) string {
		if v, ok := defaults[name]; ok {
			return v
		}
		return fallback
	}

	c := &Config{}
	var start, end Seconds

	app := kingpin.New(appName, "Practice the timing of a recorded macro against its map.")
	app.Version(Version)
	app.Arg("map", "Map name on the server").StringVar(&c.Map)
	app.Flag("config", "TOML config file").Default(path).StringVar(&c.ConfigFile)
	app.Flag("server", "Map and evaluator server").Default(def("server", "http://localhost:8000")).StringVar(&c.Server)
	app.Flag("rate", "Playback speed").Default(def("rate", "1.0")).Short('r').Float64Var(&c.Speed)
	app.Flag("start", "Practice start in seconds").SetValue(&start)
	app.Flag("end", "Practice end in seconds").SetValue(&end)
	app.Flag("press-only", "Only judge presses").Default(def("press-only", "false")).BoolVar(&c.PressOnly)
	app.Flag("delay", "Countdown before play").Default(def("delay", "1.5s")).Short('d').DurationVar(&c.Delay)
	app.Flag("pre-roll", "Transport lead in after the countdown").Default(def("pre-roll", "0s")).DurationVar(&c.PreRoll)
	app.Flag("frame-period", "Render frame period").Default(def("frame-period", "4ms")).Short('p').DurationVar(&c.FramePeriod)
	app.Flag("scroll", "Seconds of map visible ahead").Default(def("scroll", "2.5")).Float64Var(&c.Scroll)
	app.Flag("device", "evdev keyboard device for press and release").Default(def("device", "")).StringVar(&c.Device)
	app.Flag("beep", "Play cue tones").Default(def("beep", "true")).BoolVar(&c.Beep)
	app.Flag("music", "Play the map music").Default(def("music", "true")).BoolVar(&c.Music)
	app.Flag("volume", "Music volume 0-1").Default(def("volume", "1.0")).Float64Var(&c.Volume)
	app.Flag("hit-window", "Evaluator hit window in ms").Default(def("hit-window", "18")).Float64Var(&c.HitWindowMs)
	app.Flag("cache", "Map cache database").Default(def("cache", DefaultCachePath())).StringVar(&c.Cache)
	app.Flag("log", "Log file, empty to disable").Default(def("log", DefaultLogPath())).StringVar(&c.Log)
	app.Flag("debug", "Log every input and request").Default(def("debug", "false")).BoolVar(&c.Debug)
	app.Flag("offline", "Only use cached maps").Default(def("offline", "false")).BoolVar(&c.Offline)
	app.Flag("map-file", "Play a map from a local JSON file").ExistingFileVar(&c.MapFile)
	app.Flag("leniency-file", "Leniency config for --map-file").ExistingFileVar(&c.LeniencyFile)

	if _, err := app.Parse(args); nil != err {
		return nil, fmt.Errorf("%v: %w", err, game.ErrInvalidConfiguration)
	}
	c.Start, c.End = start.Value, end.Value

	if err := c.Validate(); nil != err {
		return nil, err
	}
	return c, nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, game.ErrInvalidConfiguration)...)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Validate rejects configurations a session cannot start with. Nothing is
// clamped.
func (c *Config) Validate() error {
	if !finite(c.Speed) || c.Speed <= 0 {
		return invalid("rate must be > 0, got %v", c.Speed)
	}
	if nil != c.Start && (!finite(*c.Start) || *c.Start < 0) {
		return invalid("start must be >= 0, got %v", *c.Start)
	}
	if nil != c.End && (!finite(*c.End) || *c.End < 0) {
		return invalid("end must be >= 0, got %v", *c.End)
	}
	if nil != c.Start && nil != c.End && *c.End <= *c.Start {
		return invalid("end %v must be after start %v", *c.End, *c.Start)
	}
	if !finite(c.Volume) || c.Volume < 0 || c.Volume > 1 {
		return invalid("volume must be within [0, 1], got %v", c.Volume)
	}
	if !finite(c.HitWindowMs) || c.HitWindowMs < 0 {
		return invalid("hit window must be >= 0, got %v", c.HitWindowMs)
	}
	if c.Delay < 0 || c.PreRoll < 0 {
		return invalid("delay and pre-roll must not be negative")
	}
	if c.FramePeriod <= 0 {
		return invalid("frame period must be > 0, got %v", c.FramePeriod)
	}
	if !finite(c.Scroll) || c.Scroll <= 0 {
		return invalid("scroll must be > 0, got %v", c.Scroll)
	}
	if c.LeniencyFile != "" && c.MapFile == "" {
		return invalid("--leniency-file needs --map-file")
	}
	return nil
}

// parseSeconds accepts "12.5" as well as "12.5s" or "1m2s".
func parseSeconds(v string) (float64, error) {
	if f, err := strconv.ParseFloat(v, 64); nil == err {
		return f, nil
	}
	d, err := time.ParseDuration(v)
	if nil != err {
		return 0, fmt.Errorf("%q is not a time in seconds", v)
	}
	return d.Seconds(), nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
