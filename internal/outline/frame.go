package outline

import (
	"time"

	"grus/internal/action"
	"grus/internal/tree"
)

type Options struct {
	Width   int
	Height  int
	Indent  int
	Spacing int
	Theme   Theme
	Now     time.Time
}

// Frame is one laid out and placed pass over the tree. Coordinates are
// relative to the frame's top left corner.
type Frame struct {
	painter *Painter
	width   int
	height  int
	glyphs  GlyphSet
}

// Layout flattens the subtree under (pid, id) into a frame of the given size.
func Layout(t *tree.Tree, pid, id uint64, o Options) *Frame {
	placer := NewTermPlacer(o.Width, 0, o.Indent, o.Spacing, o.Theme.Glyphs, o.Now)
	rows := Flatten(t, pid, id, o.Height, placer)
	p := NewPainter(rows, 0, o.Spacing, o.Indent, o.Theme)
	p.Place()
	return &Frame{painter: p, width: o.Width, height: o.Height, glyphs: o.Theme.Glyphs}
}

func (f *Frame) Rows() []Row { return f.painter.Rows() }

func (f *Frame) Len() int { return len(f.painter.Rows()) }

func (f *Frame) Painter() *Painter { return f.painter }

// Click maps a position inside the frame to the action it triggers.
func (f *Frame) Click(x, y int) action.Action {
	return f.painter.Click(x, y)
}

// View renders the frame with the row at cursor marked; -1 marks nothing.
func (f *Frame) View(cursor int) string {
	h := min(f.height, f.painter.Bottom())
	c := NewCanvas(f.width, h)
	f.painter.Paint(c, cursor)
	return c.Render(f.glyphs)
}
