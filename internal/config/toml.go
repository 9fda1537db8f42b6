package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig is the TOML configuration file. Every value is optional and
// only replaces the built in default; command line flags still win.
type FileConfig struct {
	Server  *string     `toml:"server"`
	Cache   *string     `toml:"cache"`
	Log     *string     `toml:"log"`
	Debug   *bool       `toml:"debug"`
	Offline *bool       `toml:"offline"`
	Play    PlayConfig  `toml:"play"`
	Audio   AudioConfig `toml:"audio"`
}

type PlayConfig struct {
	Rate        *float64  `toml:"rate"`
	PressOnly   *bool     `toml:"press-only"`
	Delay       *Duration `toml:"delay"`
	PreRoll     *Duration `toml:"pre-roll"`
	FramePeriod *Duration `toml:"frame-period"`
	Scroll      *float64  `toml:"scroll"`
	HitWindow   *float64  `toml:"hit-window"`
	Device      *string   `toml:"device"`
}

type AudioConfig struct {
	Beep   *bool    `toml:"beep"`
	Music  *bool    `toml:"music"`
	Volume *float64 `toml:"volume"`
}

// LoadFile reads a TOML config from path. A missing file is not an error.
func LoadFile(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, nil
	}
	if _, err := os.Stat(path); nil != err {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("unable to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); nil != err {
		return FileConfig{}, fmt.Errorf("unable to decode config %s: %w", path, err)
	}
	return cfg, nil
}

// defaults renders the file values as flag defaults, keyed by flag name.
func (f FileConfig) defaults() map[string]string {
	d := map[string]string{}
	str := func(name string, v *string) {
		if nil != v {
			d[name] = *v
		}
	}
	num := func(name string, v *float64) {
		if nil != v {
			d[name] = fmt.Sprint(*v)
		}
	}
	flag := func(name string, v *bool) {
		if nil != v {
			d[name] = fmt.Sprint(*v)
		}
	}
	dur := func(name string, v *Duration) {
		if nil != v {
			d[name] = v.String()
		}
	}

	str("server", f.Server)
	str("cache", f.Cache)
	str("log", f.Log)
	flag("debug", f.Debug)
	flag("offline", f.Offline)
	num("rate", f.Play.Rate)
	flag("press-only", f.Play.PressOnly)
	dur("delay", f.Play.Delay)
	dur("pre-roll", f.Play.PreRoll)
	dur("frame-period", f.Play.FramePeriod)
	num("scroll", f.Play.Scroll)
	num("hit-window", f.Play.HitWindow)
	str("device", f.Play.Device)
	flag("beep", f.Audio.Beep)
	flag("music", f.Audio.Music)
	num("volume", f.Audio.Volume)
	return d
}
