package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"git.lost.host/meutraa/gdpractice/internal/game"
)

type DefaultTheme struct {
}

const (
	laneSym   = "─"
	targetSym = "┃"
	headSym   = "■"
	holdSym   = "═"
	tailSym   = "▶"
)

var (
	laneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#787888"))
	targetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	headStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5AB4FF"))
	holdStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6EDCA0"))
	tailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA50"))
	hitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80")).Bold(true)
	earlyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA")).Bold(true)
	lateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FB923C")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true).Underline(true)
)

func (t *DefaultTheme) RenderLane(width int) string {
	if width <= 0 {
		return ""
	}
	return laneStyle.Render(strings.Repeat(laneSym, width))
}

func (t *DefaultTheme) RenderTarget() string {
	return targetStyle.Render(targetSym)
}

func (t *DefaultTheme) RenderHead() string {
	return headStyle.Render(headSym)
}

func (t *DefaultTheme) RenderHoldBar() string {
	return holdStyle.Render(holdSym)
}

func (t *DefaultTheme) RenderTail() string {
	return tailStyle.Render(tailSym)
}

// RenderFeedback colours a hit green, and a miss blue when early or orange
// when late.
func (t *DefaultTheme) RenderFeedback(f *game.Feedback, text string) string {
	switch {
	case f.IsHit:
		return hitStyle.Render(text)
	case f.Early():
		return earlyStyle.Render(text)
	}
	return lateStyle.Render(text)
}

func (t *DefaultTheme) RenderHint(text string) string {
	return hintStyle.Render(text)
}

func (t *DefaultTheme) RenderLabel(text string) string {
	return labelStyle.Render(text)
}

func (t *DefaultTheme) RenderValue(text string) string {
	return valueStyle.Render(text)
}

func (t *DefaultTheme) RenderTitle(text string) string {
	return titleStyle.Render(text)
}
