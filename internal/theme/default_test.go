package theme

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

func TestLaneWidth(t *testing.T) {
	th := &DefaultTheme{}
	if got := lipgloss.Width(th.RenderLane(12)); got != 12 {
		t.Errorf("lane width = %v", got)
	}
	if th.RenderLane(0) != "" {
		t.Error("empty lane should render nothing")
	}
}

func TestFeedbackKeepsText(t *testing.T) {
	th := &DefaultTheme{}
	feedback := map[string]*game.Feedback{
		"+1 ticks (+4.2ms)":  {OffsetMs: 4.2, IsHit: true},
		"-9 ticks (-37.5ms)": {OffsetMs: -37.5},
		"+7 ticks (+29.2ms)": {OffsetMs: 29.2},
	}
	for text, f := range feedback {
		if !strings.Contains(th.RenderFeedback(f, text), text) {
			t.Log(text)
			t.Fail()
		}
	}
}
