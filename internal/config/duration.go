package config

import "time"

// Duration reads "1.5s" style strings from TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if nil != err {
		return err
	}
	d.Duration = v
	return nil
}

// Seconds is an optional point in game time given in seconds.
type Seconds struct {
	Value *float64
}

func (s *Seconds) Set(v string) error {
	f, err := parseSeconds(v)
	if nil != err {
		return err
	}
	s.Value = &f
	return nil
}

func (s *Seconds) String() string {
	if nil == s.Value {
		return ""
	}
	return formatSeconds(*s.Value)
}
