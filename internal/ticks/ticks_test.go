package ticks

import (
	"errors"
	"math"
	"testing"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

func TestRoundTrip(t *testing.T) {
	for _, fps := range []float64{1, 24, 59.94, 60, 120, 144, 240, 360, 1000} {
		for ticks := -500; ticks <= 500; ticks++ {
			ms, err := ToMs(float64(ticks), fps)
			if nil != err {
				t.Fatalf("ToMs(%v, %v): %v", ticks, fps, err)
			}
			back, err := ToTicks(ms, fps)
			if nil != err {
				t.Fatalf("ToTicks(%v, %v): %v", ms, fps, err)
			}
			if int(math.Round(back)) != ticks {
				t.Log("    fps:", fps)
				t.Log("  ticks:", ticks)
				t.Log("     ms:", ms)
				t.Log("   back:", back)
				t.FailNow()
			}
		}
	}
}

func TestConversion(t *testing.T) {
	ms, _ := ToMs(3, 60)
	if math.Abs(ms-50) > 1e-9 {
		t.Errorf("3 ticks at 60fps = %v ms, expected 50", ms)
	}
	r, _ := Round(70, 240)
	if r != 17 {
		t.Errorf("70ms at 240fps = %v ticks, expected 17", r)
	}
}

func TestInvalidFPS(t *testing.T) {
	for _, fps := range []float64{0, -60, math.NaN()} {
		if _, err := ToMs(1, fps); !errors.Is(err, game.ErrInvalidConfiguration) {
			t.Errorf("ToMs with fps %v: expected invalid configuration, got %v", fps, err)
		}
		if _, err := ToTicks(1, fps); !errors.Is(err, game.ErrInvalidConfiguration) {
			t.Errorf("ToTicks with fps %v: expected invalid configuration, got %v", fps, err)
		}
	}
}

func TestFormat(t *testing.T) {
	formatTests := map[float64]string{
		50:    "+3 ticks (+50.0ms)",
		-45.5: "-3 ticks (-45.5ms)",
		0:     "+0 ticks (+0.0ms)",
	}
	for in, expected := range formatTests {
		if out := Format(in, 60); out != expected {
			t.Errorf("Format(%v) = %q, expected %q", in, out, expected)
		}
	}
}
