package render

import (
	"time"

	"git.lost.host/meutraa/gdpractice/internal/theme"
)

type Renderer interface {
	Init() error
	Deinit() error
	Size() (columns, rows int)
	Clear()
	AddDecoration(col, row int, content string, ttl time.Duration)
	Loop(period time.Duration, frame func(now time.Time) bool)
	Fill(row, column int, message string)
	DrawLane(row int, parts []Part, th theme.Theme)
	Flush()
}
