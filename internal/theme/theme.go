package theme

import "git.lost.host/meutraa/gdpractice/internal/game"

type Theme interface {
	RenderLane(width int) string
	RenderTarget() string
	RenderHead() string
	RenderHoldBar() string
	RenderTail() string
	RenderFeedback(f *game.Feedback, text string) string
	RenderHint(text string) string
	RenderLabel(text string) string
	RenderValue(text string) string
	RenderTitle(text string) string
}
