package render

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"git.lost.host/meutraa/gdpractice/internal/theme"
)

type DefaultRenderer struct {
	Out io.Writer // os.Stdout when nil
	Now func() time.Time

	buffer       strings.Builder
	restoreState *term.State
	decorations  []*decoration
}

type decoration struct {
	X, Y    int
	Content string
	Until   time.Time
}

func (r *DefaultRenderer) out() io.Writer {
	if nil == r.Out {
		return os.Stdout
	}
	return r.Out
}

func (r *DefaultRenderer) now() time.Time {
	if nil == r.Now {
		return time.Now()
	}
	return r.Now()
}

func (r *DefaultRenderer) Init() error {
	state, err := term.MakeRaw(int(os.Stdin.Fd()))
	if nil != err {
		return fmt.Errorf("unable to enter raw mode: %w", err)
	}
	r.restoreState = state

	fmt.Fprintf(r.out(), "%s%s%s",
		"\033[?1049h", // Enable alternate buffer
		"\033[?25l",   // Make the cursor invisible
		"\033[2J",     // Clear the screen
	)
	return nil
}

func (r *DefaultRenderer) Deinit() error {
	fmt.Fprintf(r.out(), "%s%s",
		"\033[?1049l", // Disable alternate buffer
		"\033[?25h",   // Make the cursor visible
	)
	if nil == r.restoreState {
		return nil
	}
	err := term.Restore(int(os.Stdin.Fd()), r.restoreState)
	r.restoreState = nil
	return err
}

// Size falls back to 80x24 when stdout is not a terminal.
func (r *DefaultRenderer) Size() (int, int) {
	columns, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if nil != err || columns <= 0 || rows <= 0 {
		return 80, 24
	}
	return columns, rows
}

func (r *DefaultRenderer) Clear() {
	r.buffer.WriteString("\033[2J")
	for _, d := range r.decorations {
		r.Fill(d.Y, d.X, d.Content)
	}
}

func (r *DefaultRenderer) AddDecoration(col, row int, content string, ttl time.Duration) {
	r.decorations = append(r.decorations, &decoration{
		X:       col,
		Y:       row,
		Content: content,
		Until:   r.now().Add(ttl),
	})
	r.Fill(row, col, content)
}

func (r *DefaultRenderer) tickDecorations(now time.Time) {
	nd := r.decorations[:0]
	for _, d := range r.decorations {
		if !now.Before(d.Until) {
			r.Fill(d.Y, d.X, "\033[K")
			continue
		}
		nd = append(nd, d)
	}
	r.decorations = nd
}

// Loop calls frame once per period until it returns false. Frames that
// overrun their period are not made up for.
func (r *DefaultRenderer) Loop(period time.Duration, frame func(now time.Time) bool) {
	cont := true
	for cont {
		now := r.now()
		deadline := now.Add(period)

		cont = frame(now)

		r.tickDecorations(now)
		r.Flush()

		if remaining := time.Until(deadline); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

func (r *DefaultRenderer) Fill(row, column int, message string) {
	r.buffer.WriteString("\033[")
	r.buffer.WriteString(strconv.Itoa(row))
	r.buffer.WriteString(";")
	r.buffer.WriteString(strconv.Itoa(column))
	r.buffer.WriteString("H")
	r.buffer.WriteString(message)
}

// DrawLane writes a full lane row starting at column 1.
func (r *DefaultRenderer) DrawLane(row int, parts []Part, th theme.Theme) {
	var b strings.Builder
	for i := 0; i < len(parts); {
		// Runs of plain lane are styled once
		if parts[i] == PartLane {
			j := i
			for j < len(parts) && parts[j] == PartLane {
				j++
			}
			b.WriteString(th.RenderLane(j - i))
			i = j
			continue
		}
		switch parts[i] {
		case PartHead:
			b.WriteString(th.RenderHead())
		case PartHold:
			b.WriteString(th.RenderHoldBar())
		case PartTail:
			b.WriteString(th.RenderTail())
		case PartTarget:
			b.WriteString(th.RenderTarget())
		}
		i++
	}
	r.Fill(row, 1, b.String())
}

func (r *DefaultRenderer) Flush() {
	if r.buffer.Len() == 0 {
		return
	}
	io.WriteString(r.out(), r.buffer.String())
	r.buffer.Reset()
}
