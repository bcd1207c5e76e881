package outline

import "strings"

// Terminals can't change the user's font, so affordances come in a Unicode
// and an ASCII flavour.

type GlyphSet int

const (
	GlyphsUnicode GlyphSet = iota
	GlyphsASCII
)

// ParseGlyphSet maps a config value to a glyph set. Unknown values mean
// Unicode.
func ParseGlyphSet(s string) GlyphSet {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ascii":
		return GlyphsASCII
	default:
		return GlyphsUnicode
	}
}

func (g GlyphSet) Checkbox(checked bool) string {
	switch {
	case !checked:
		return "[ ]"
	case g == GlyphsASCII:
		return "[x]"
	default:
		return "[✓]"
	}
}

func (g GlyphSet) Add() string {
	return " + "
}

func (g GlyphSet) Delete() string {
	if g == GlyphsASCII {
		return " x "
	}
	return " ✕ "
}

// Directions meeting in a canvas cell.
const (
	lineUp uint8 = 1 << iota
	lineDown
	lineLeft
	lineRight
)

var unicodeBox = map[uint8]rune{
	lineUp:                                  '│',
	lineDown:                                '│',
	lineUp | lineDown:                       '│',
	lineLeft:                                '─',
	lineRight:                               '─',
	lineLeft | lineRight:                    '─',
	lineUp | lineRight:                      '└',
	lineDown | lineRight:                    '┌',
	lineUp | lineLeft:                       '┘',
	lineDown | lineLeft:                     '┐',
	lineUp | lineDown | lineRight:           '├',
	lineUp | lineDown | lineLeft:            '┤',
	lineLeft | lineRight | lineDown:         '┬',
	lineLeft | lineRight | lineUp:           '┴',
	lineUp | lineDown | lineLeft | lineRight: '┼',
}

// Box returns the line-drawing glyph for a set of directions.
func (g GlyphSet) Box(dirs uint8) rune {
	if dirs == 0 {
		return ' '
	}
	if g == GlyphsASCII {
		switch dirs {
		case lineUp, lineDown, lineUp | lineDown:
			return '|'
		case lineLeft, lineRight, lineLeft | lineRight:
			return '-'
		case lineUp | lineRight:
			return '`'
		default:
			return '+'
		}
	}
	return unicodeBox[dirs]
}
