package input

import (
	"encoding/binary"
	"os"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"
	"go.uber.org/zap"
)

// linux/input-event-codes.h
const (
	evKey = 0x01

	keyEsc   = 1
	keySpace = 57
	keyUp    = 103
)

type keyEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type Action int

const (
	None   Action = iota
	Button        // The single practice button
	Cancel
)

type Event struct {
	Pressed  bool
	Released bool
	Action   Action
	Time     time.Time
}

func action(code uint16) Action {
	switch code {
	case keySpace, keyUp:
		return Button
	case keyEsc:
		return Cancel
	}
	return None
}

// ReadDevice streams press and release transitions from an evdev keyboard.
// Kernel timestamps are kept so that frame jitter does not leak into input
// times. Autorepeat is dropped.
func ReadDevice(kbd string, events chan<- *Event, log *zap.Logger) error {
	file, err := os.Open(kbd)
	if err != nil {
		return err
	}
	go func() {
		defer file.Close()

		var ev keyEvent
		for {
			err = binary.Read(file, binary.LittleEndian, &ev)
			if nil != err {
				log.Warn("unable to read keyboard input", zap.String("device", kbd), zap.Error(err))
				return
			}
			if ev.Type != evKey || ev.Value == 2 {
				continue
			}
			a := action(ev.Code)
			if a == None {
				continue
			}
			events <- &Event{
				Pressed:  ev.Value == 1,
				Released: ev.Value == 0,
				Action:   a,
				Time:     time.Unix(int64(ev.Time.Sec), int64(ev.Time.Usec)*1000),
			}
		}
	}()
	return nil
}

// FromKey translates a terminal key. Terminals never report releases, so
// the button only ever produces presses.
func FromKey(key keyboard.KeyEvent, at time.Time) *Event {
	switch {
	case key.Key == keyboard.KeySpace || key.Key == keyboard.KeyArrowUp:
		return &Event{Pressed: true, Action: Button, Time: at}
	case key.Key == keyboard.KeyEsc:
		return &Event{Pressed: true, Action: Cancel, Time: at}
	}
	return nil
}
