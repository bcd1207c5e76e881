package outline

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/charmbracelet/lipgloss"

	"grus/internal/action"
)

// Affordance is an interactive part of a row.
type Affordance int

const (
	NoAffordance Affordance = iota
	CheckboxAffordance
	LabelAffordance
	AddAffordance
	DeleteAffordance
)

// Activate maps an interaction with part of the row to a domain action. The
// self-referencing root row can neither be toggled, entered nor deleted.
func (r Row) Activate(a Affordance) action.Action {
	f := r.Flat
	switch a {
	case CheckboxAffordance:
		if !f.SelfReferencing() {
			return action.On(action.Toggle, f.Parent, f.Node.ID)
		}
	case LabelAffordance:
		if !f.SelfReferencing() {
			return action.On(action.MoveInto, f.Parent, f.Node.ID)
		}
	case AddAffordance:
		return action.On(action.Add, f.Parent, f.Node.ID)
	case DeleteAffordance:
		if !f.SelfReferencing() {
			return action.On(action.Delete, f.Parent, f.Node.ID)
		}
	}
	return action.Action{}
}

// Segment is a straight connector line. Vertical segments run down column
// At, horizontal ones along line At; From and To are half-cell offsets.
type Segment struct {
	Vertical bool
	At       int
	From, To int
	Color    lipgloss.Color
}

type Theme struct {
	Line      lipgloss.Color
	Highlight lipgloss.Color
	Secondary lipgloss.Color
	Glyphs    GlyphSet
}

func DefaultTheme(g GlyphSet) Theme {
	return Theme{
		Line:      lipgloss.Color("245"),
		Highlight: lipgloss.Color("11"),
		Secondary: lipgloss.Color("243"),
		Glyphs:    g,
	}
}

// Painter positions sorted rows from the panel top down and draws them.
type Painter struct {
	rows    []Row
	top     int
	spacing int
	indent  int
	theme   Theme
	colors  []lipgloss.Color
	bottom  int
}

func NewPainter(rows []Row, top, spacing, indent int, theme Theme) *Painter {
	p := &Painter{
		rows:    rows,
		top:     top,
		spacing: spacing,
		indent:  indent,
		theme:   theme,
		colors:  make([]lipgloss.Color, len(rows)),
		bottom:  top,
	}
	seen := make(map[uint64]bool, len(rows))
	for i, r := range rows {
		id := r.Flat.Node.ID
		if seen[id] {
			p.colors[i] = idColor(id)
		} else {
			seen[id] = true
			p.colors[i] = theme.Line
		}
		p.bottom += r.Height(spacing)
	}
	return p
}

// idColor derives a stable colour for a node that shows up more than once.
func idColor(id uint64) lipgloss.Color {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], id)
	h.Write(buf[:])
	sum := h.Sum(nil)
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", sum[0], sum[1], sum[2]))
}

func (p *Painter) Rows() []Row { return p.rows }

// Bottom is the first line below the last row.
func (p *Painter) Bottom() int { return p.bottom }

// Color is the connector colour of row i.
func (p *Painter) Color(i int) lipgloss.Color { return p.colors[i] }

// Place assigns every widget its final line, walking rows top to bottom.
// Checkbox and buttons sit on the row's centre line, labels on its first.
func (p *Painter) Place() {
	h := p.top
	for i := range p.rows {
		r := &p.rows[i]
		r.Top = h
		mid := r.Center(p.spacing)
		r.Checkbox.Y = mid
		r.Label.Y = h
		r.Add.Y = mid
		r.Delete.Y = mid

		h += r.Height1 + p.spacing
		if r.Session != nil {
			r.Session.Y = h
		}
		if r.Due != nil {
			r.Due.Y = h
		}
		if r.HasSubRow() {
			h += r.Height2 + p.spacing
		}
	}
}

// Hit finds the row and affordance under (x, y). The delete button of the
// root row is not shown and cannot be hit.
func (p *Painter) Hit(x, y int) (int, Affordance) {
	for i, r := range p.rows {
		switch {
		case r.Checkbox.Contains(x, y):
			return i, CheckboxAffordance
		case r.Label.Contains(x, y):
			return i, LabelAffordance
		case r.Add.Contains(x, y):
			return i, AddAffordance
		case !r.Flat.SelfReferencing() && r.Delete.Contains(x, y):
			return i, DeleteAffordance
		}
	}
	return -1, NoAffordance
}

// Click is Hit followed by Activate.
func (p *Painter) Click(x, y int) action.Action {
	i, a := p.Hit(x, y)
	if i < 0 {
		return action.Action{}
	}
	return p.rows[i].Activate(a)
}

func (p *Painter) lineX(depth int) int {
	return (depth-1)*p.indent + 1
}

// Segments computes the connector lines, walking rows bottom to top with a
// stack of depths whose sibling line is still open. Every open depth except
// the row's own passes straight through the row. At its own depth the last
// sibling gets an elbow ending at the row's centre, the others a full-height
// line, and both a stub across to the checkbox.
func (p *Painter) Segments() []Segment {
	var segs []Segment
	var open []int
	for i := len(p.rows) - 1; i >= 1; i-- {
		r := p.rows[i]
		d := r.Flat.Depth
		for len(open) > 0 && open[len(open)-1] > d {
			open = open[:len(open)-1]
		}
		if len(open) == 0 || open[len(open)-1] != d {
			open = append(open, d)
		}

		top := 2 * r.Top
		bottom := 2 * (r.Top + r.Height(p.spacing))
		for _, pos := range open[:len(open)-1] {
			segs = append(segs, Segment{Vertical: true, At: p.lineX(pos), From: top, To: bottom, Color: p.theme.Line})
		}

		mid := r.Center(p.spacing)
		end := bottom
		if r.Flat.Rank.IsLast() {
			end = 2*mid + 1
		}
		x := p.lineX(d)
		segs = append(segs,
			Segment{Vertical: true, At: x, From: top, To: end, Color: p.colors[i]},
			Segment{At: mid, From: 2*x + 1, To: 2 * r.Checkbox.X, Color: p.colors[i]},
		)
	}
	return segs
}

// Paint draws connectors and widgets onto c. cursor is the index of the row
// under the keyboard cursor, or -1.
func (p *Painter) Paint(c *Canvas, cursor int) {
	for _, s := range p.Segments() {
		c.Segment(s)
	}
	for i, r := range p.rows {
		label := Style{}
		if r.Flat.Highlighted {
			label.Fg = p.theme.Highlight
		}
		if i == cursor {
			label.Reverse = true
		}
		c.Text(r.Checkbox.X, r.Checkbox.Y, r.Checkbox.Text, Style{Bold: r.Flat.Selected})
		c.Text(r.Label.X, r.Label.Y, r.Label.Text, label)
		c.Text(r.Add.X, r.Add.Y, r.Add.Text, Style{Fg: p.theme.Secondary})
		if !r.Flat.SelfReferencing() {
			c.Text(r.Delete.X, r.Delete.Y, r.Delete.Text, Style{Fg: p.theme.Secondary})
		}
		if r.Session != nil {
			c.Text(r.Session.X, r.Session.Y, r.Session.Text, Style{Fg: p.theme.Secondary})
		}
		if r.Due != nil {
			c.Text(r.Due.X, r.Due.Y, r.Due.Text, Style{Fg: p.theme.Secondary})
		}
	}
}
