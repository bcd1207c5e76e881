package outline

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grus/internal/tree"
)

func TestTermPlacerSingleLine(t *testing.T) {
	p := NewTermPlacer(40, 2, 4, 1, GlyphsUnicode, testNow)

	row := p.Place(FlatNode{Node: &tree.Node{ID: 5, Name: "write report"}, Depth: 1, Selected: true})

	assert.Equal(t, Element{Text: "[✓]", X: 4, Y: 2, W: 3, H: 1}, row.Checkbox)
	assert.Equal(t, Element{Text: "write report", X: 8, Y: 2, W: 12, H: 1}, row.Label)
	assert.Equal(t, Element{Text: " ✕ ", X: 37, Y: 2, W: 3, H: 1}, row.Delete)
	assert.Equal(t, Element{Text: " + ", X: 34, Y: 2, W: 3, H: 1}, row.Add)
	assert.False(t, row.HasSubRow())
	assert.Equal(t, 4, p.NextY())
}

func TestTermPlacerWrapsLabel(t *testing.T) {
	p := NewTermPlacer(20, 0, 4, 0, GlyphsASCII, testNow)

	row := p.Place(FlatNode{Node: &tree.Node{Name: "alpha beta gamma delta"}})

	require.Greater(t, row.Label.H, 1)
	for _, l := range strings.Split(row.Label.Text, "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(l), 9)
	}
	assert.Equal(t, row.Label.H, row.Height1)
	assert.Equal(t, row.Label.H, p.NextY())
}

func TestTermPlacerSubRow(t *testing.T) {
	due := time.Date(2024, 3, 13, 17, 30, 0, 0, time.UTC)
	session := &tree.Session{
		Start: time.Date(2024, 3, 13, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 13, 9, 45, 0, 0, time.UTC),
	}
	p := NewTermPlacer(40, 0, 4, 0, GlyphsUnicode, testNow)

	row := p.Place(FlatNode{Node: &tree.Node{Name: "a", Due: &due, Session: session}, Depth: 1})

	require.True(t, row.HasSubRow())
	require.NotNil(t, row.Due)
	require.NotNil(t, row.Session)
	assert.Equal(t, "5:30 PM", row.Due.Text)
	assert.Equal(t, 40-len("5:30 PM"), row.Due.X)
	assert.Equal(t, 1, row.Due.Y)
	assert.Equal(t, "9:00 AM to 9:45 AM", row.Session.Text)
	assert.Equal(t, 4, row.Session.X)
	assert.Equal(t, 1, row.Session.Y)
	assert.Equal(t, 2, row.Height(0))
	assert.Equal(t, 2, p.NextY())
}

func TestTermPlacerDueOnly(t *testing.T) {
	due := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	p := NewTermPlacer(40, 0, 4, 0, GlyphsUnicode, testNow)

	row := p.Place(FlatNode{Node: &tree.Node{Name: "a", Due: &due}})

	assert.Nil(t, row.Session)
	require.NotNil(t, row.Due)
	assert.Equal(t, "2 Jan 2025 8:00 AM", row.Due.Text)
	assert.Equal(t, 1, row.Height2)
}

func TestRowCenter(t *testing.T) {
	r := Row{Top: 10, Height1: 3}
	assert.Equal(t, 11, r.Center(0))
	assert.Equal(t, 11, r.Center(1))

	r = Row{Top: 10, Height1: 1, Height2: 1, Due: &Element{}}
	assert.Equal(t, 10, r.Center(0))
	assert.Equal(t, 11, r.Center(1))
}

func TestFormatWhen(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"same day", time.Date(2024, 3, 13, 15, 4, 0, 0, time.UTC), "3:04 PM"},
		{"same week", time.Date(2024, 3, 11, 9, 5, 0, 0, time.UTC), "Monday 9:05 AM"},
		{"same year", time.Date(2024, 2, 5, 8, 0, 0, 0, time.UTC), "5 Feb 8:00 AM"},
		{"other year", time.Date(2023, 12, 25, 12, 0, 0, 0, time.UTC), "25 Dec 2023 12:00 PM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatWhen(tt.t, testNow))
		})
	}
}

func TestGlyphs(t *testing.T) {
	assert.Equal(t, GlyphsASCII, ParseGlyphSet(" ASCII "))
	assert.Equal(t, GlyphsUnicode, ParseGlyphSet("fancy"))

	assert.Equal(t, "[ ]", GlyphsUnicode.Checkbox(false))
	assert.Equal(t, "[x]", GlyphsASCII.Checkbox(true))
	assert.Equal(t, '├', GlyphsUnicode.Box(lineUp|lineDown|lineRight))
	assert.Equal(t, '└', GlyphsUnicode.Box(lineUp|lineRight))
	assert.Equal(t, '+', GlyphsASCII.Box(lineUp|lineDown|lineRight))
	assert.Equal(t, ' ', GlyphsASCII.Box(0))
}

func TestCanvasClipsAndStyles(t *testing.T) {
	c := NewCanvas(5, 2)
	c.Text(3, 0, "hello", Style{})
	c.Text(0, 1, "界x", Style{})
	c.Segment(Segment{At: 0, From: 0, To: 6})

	assert.Equal(t, "───he\n界x", c.Render(GlyphsUnicode))
}
