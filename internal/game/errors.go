package game

import "errors"

var (
	// Rejected before a session starts, never clamped.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// Network failure talking to the map source or the evaluator.
	ErrTransientIO = errors.New("transient io failure")
	// Playback continues muted.
	ErrAudioUnavailable = errors.New("audio unavailable")
)
