package outline

import (
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Element is a positioned widget. X and W are in cells, Y and H in lines.
type Element struct {
	Text string
	X, Y int
	W, H int
}

func (e Element) Contains(x, y int) bool {
	return x >= e.X && x < e.X+e.W && y >= e.Y && y < e.Y+e.H
}

// Row is a FlatNode with its widgets laid out. Height1 is the main line
// (checkbox, label, add, delete); Height2 is the optional line below it
// carrying the session and due date.
type Row struct {
	Flat     FlatNode
	Top      int
	Checkbox Element
	Label    Element
	Add      Element
	Delete   Element
	Session  *Element
	Due      *Element
	Height1  int
	Height2  int
}

func (r Row) HasSubRow() bool {
	return r.Session != nil || r.Due != nil
}

// Height is the vertical space the row takes including spacing after each
// of its lines.
func (r Row) Height(spacing int) int {
	h := r.Height1 + spacing
	if r.HasSubRow() {
		h += r.Height2 + spacing
	}
	return h
}

// Center is the line the row's single-line widgets sit on.
func (r Row) Center(spacing int) int {
	return r.Top + (r.Height(spacing)-spacing-1)/2
}

// Placer measures and positions a row's widgets below the previous one.
// Flatten only uses it to decide whether the next row still fits.
type Placer interface {
	Place(f FlatNode) Row
	NextY() int
}

// TermPlacer lays rows out on a terminal of the given width.
type TermPlacer struct {
	width   int
	indent  int
	spacing int
	glyphs  GlyphSet
	now     time.Time
	y       int
}

func NewTermPlacer(width, top, indent, spacing int, glyphs GlyphSet, now time.Time) *TermPlacer {
	return &TermPlacer{width: width, indent: indent, spacing: spacing, glyphs: glyphs, now: now, y: top}
}

func (p *TermPlacer) NextY() int { return p.y }

func (p *TermPlacer) Place(f FlatNode) Row {
	y := p.y

	// right to left: delete, add
	right := p.width
	del := p.button(p.glyphs.Delete(), &right, y)
	add := p.button(p.glyphs.Add(), &right, y)

	// left to right: indent, checkbox, label
	left := f.Depth * p.indent
	box := p.glyphs.Checkbox(f.Selected)
	checkbox := Element{Text: box, X: left, Y: y, W: runewidth.StringWidth(box), H: 1}
	labelX := checkbox.X + checkbox.W + 1
	label := p.text(f.Node.Name, labelX, y, right-1-labelX)

	row := Row{
		Flat:     f,
		Top:      y,
		Checkbox: checkbox,
		Label:    label,
		Add:      add,
		Delete:   del,
		Height1:  label.H,
	}
	p.y += row.Height1 + p.spacing

	if f.Node.Session == nil && f.Node.Due == nil {
		return row
	}

	y2 := p.y
	right = p.width
	if f.Node.Due != nil {
		text := FormatWhen(*f.Node.Due, p.now)
		w := runewidth.StringWidth(text)
		right -= w
		row.Due = &Element{Text: text, X: right, Y: y2, W: w, H: 1}
	}
	row.Height2 = 1
	if f.Node.Session != nil {
		session := p.text(FormatSession(*f.Node.Session, p.now), left, y2, right-1-left)
		row.Session = &session
		row.Height2 = session.H
	}
	p.y += row.Height2 + p.spacing
	return row
}

func (p *TermPlacer) button(text string, right *int, y int) Element {
	w := runewidth.StringWidth(text)
	*right -= w
	return Element{Text: text, X: *right, Y: y, W: w, H: 1}
}

// text wraps s into at most width cells per line.
func (p *TermPlacer) text(s string, x, y, width int) Element {
	if width < 1 {
		width = 1
	}
	wrapped := ansi.Wrap(s, width, "")
	lines := strings.Split(wrapped, "\n")
	w := 0
	for _, l := range lines {
		w = max(w, runewidth.StringWidth(l))
	}
	return Element{Text: wrapped, X: x, Y: y, W: max(w, 1), H: len(lines)}
}
