package outline

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Style is the per-cell look. It is comparable so runs of equal cells can be
// rendered together.
type Style struct {
	Fg      lipgloss.Color
	Bold    bool
	Reverse bool
}

func (s Style) render(text string) string {
	if s == (Style{}) {
		return text
	}
	st := lipgloss.NewStyle().Bold(s.Bold).Reverse(s.Reverse)
	if s.Fg != "" {
		st = st.Foreground(s.Fg)
	}
	return st.Render(text)
}

type cell struct {
	r     rune
	cont  bool // right half of a wide rune
	lines uint8
	style Style
}

// Canvas is a grid of terminal cells that widgets and connector segments are
// painted onto.
type Canvas struct {
	w, h  int
	cells []cell
}

func NewCanvas(w, h int) *Canvas {
	return &Canvas{w: max(w, 0), h: max(h, 0), cells: make([]cell, max(w, 0)*max(h, 0))}
}

func (c *Canvas) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return nil
	}
	return &c.cells[y*c.w+x]
}

// Text writes s starting at (x, y); newlines continue at x on the next line.
// Anything outside the canvas is clipped.
func (c *Canvas) Text(x, y int, s string, st Style) {
	for i, line := range strings.Split(s, "\n") {
		cx := x
		for _, r := range line {
			rw := runewidth.RuneWidth(r)
			if rw == 0 {
				continue
			}
			if cx+rw > c.w {
				break
			}
			if cl := c.at(cx, y+i); cl != nil {
				*cl = cell{r: r, style: st}
				for k := 1; k < rw; k++ {
					if next := c.at(cx+k, y+i); next != nil {
						*next = cell{cont: true, style: st}
					}
				}
			}
			cx += rw
		}
	}
}

// Segment adds a connector segment. Coordinates are in half cells, so a
// line may stop at a cell's midpoint.
func (c *Canvas) Segment(s Segment) {
	if s.To <= s.From {
		return
	}
	first, last := s.From/2, (s.To-1)/2
	for i := first; i <= last; i++ {
		var cl *cell
		if s.Vertical {
			cl = c.at(s.At, i)
		} else {
			cl = c.at(i, s.At)
		}
		if cl == nil || cl.cont || (cl.r != 0 && cl.lines == 0) {
			continue
		}
		var bits uint8
		if s.From <= 2*i && s.To >= 2*i+1 {
			bits |= pick(s.Vertical, lineUp, lineLeft)
		}
		if s.From <= 2*i+1 && s.To >= 2*i+2 {
			bits |= pick(s.Vertical, lineDown, lineRight)
		}
		if bits == 0 {
			continue
		}
		cl.lines |= bits
		cl.style = Style{Fg: s.Color}
	}
}

func pick(vertical bool, v, h uint8) uint8 {
	if vertical {
		return v
	}
	return h
}

// Render returns the canvas as styled lines. Trailing blank cells are dropped.
func (c *Canvas) Render(g GlyphSet) string {
	var b strings.Builder
	for y := 0; y < c.h; y++ {
		row := c.cells[y*c.w : (y+1)*c.w]
		end := len(row)
		for end > 0 && row[end-1].r == 0 && row[end-1].lines == 0 && !row[end-1].cont {
			end--
		}
		var run strings.Builder
		var cur Style
		for x := 0; x < end; x++ {
			cl := row[x]
			if cl.cont {
				continue
			}
			r := cl.r
			st := cl.style
			switch {
			case cl.lines != 0:
				r = g.Box(cl.lines)
			case r == 0:
				r = ' '
				st = Style{}
			}
			if st != cur && run.Len() > 0 {
				b.WriteString(cur.render(run.String()))
				run.Reset()
			}
			cur = st
			run.WriteRune(r)
		}
		if run.Len() > 0 {
			b.WriteString(cur.render(run.String()))
		}
		if y < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
