package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/yourusername/stackengine/pkg/engine"
)

// renderer draws boards and moves with terminal colors when the output supports them
type renderer struct {
	out   *termenv.Output
	white termenv.Color
	black termenv.Color
	dim   termenv.Color
}

func newRenderer(w io.Writer) *renderer {
	out := termenv.NewOutput(w)
	return &renderer{
		out:   out,
		white: out.Color("#F5F5DC"),
		black: out.Color("#D2691E"),
		dim:   out.Color("#606060"),
	}
}

func (r *renderer) colored(c engine.Color, s string) string {
	style := r.out.String(s).Bold()
	switch c {
	case engine.White:
		style = style.Foreground(r.white)
	case engine.Black:
		style = style.Foreground(r.black)
	}
	return style.String()
}

func (r *renderer) faint(s string) string {
	return r.out.String(s).Foreground(r.dim).String()
}

// board renders one row per line. Each playable tile shows the stack height and
// the top color; a completed stack is underlined.
func (r *renderer) board(p *engine.Position) string {
	var sb strings.Builder
	n := p.Size()

	sb.WriteString("    ")
	for col := 0; col < n; col++ {
		sb.WriteString(r.faint(fmt.Sprintf("%3d", col)))
	}
	sb.WriteByte('\n')

	for row := 0; row < n; row++ {
		sb.WriteString(r.faint(fmt.Sprintf("%3d ", row)))
		for col := 0; col < n; col++ {
			t := engine.Tile{Row: row, Col: col}
			switch {
			case !p.IsPlayable(t):
				sb.WriteString("   ")
			case !p.Occupied(t):
				sb.WriteString(r.faint("  ."))
			default:
				top, _ := p.Top(t)
				cell := fmt.Sprintf("%d%s", p.Height(t), colorLetter(top.Color))
				s := r.out.String(fmt.Sprintf("%3s", cell)).Bold()
				if top.Color == engine.White {
					s = s.Foreground(r.white)
				} else {
					s = s.Foreground(r.black)
				}
				if p.Height(t) == engine.MaxStackHeight {
					s = s.Underline()
				}
				sb.WriteString(s.String())
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stack lists a stack bottom to top
func (r *renderer) stack(p *engine.Position, t engine.Tile) string {
	tokens := p.Stack(t)
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = r.colored(tok.Color, colorLetter(tok.Color))
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (r *renderer) score(points [2]int, maxPoints int) string {
	return fmt.Sprintf("%s %d  %s %d  (%d to win, %d stacks)",
		r.colored(engine.White, "White"), points[engine.White],
		r.colored(engine.Black, "Black"), points[engine.Black],
		maxPoints/2+1, maxPoints)
}

func colorLetter(c engine.Color) string {
	switch c {
	case engine.White:
		return "W"
	case engine.Black:
		return "B"
	}
	return "?"
}
