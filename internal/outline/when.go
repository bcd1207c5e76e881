package outline

import (
	"strings"
	"time"

	"grus/internal/tree"
)

// FormatWhen renders t relative to now: the further away, the more of the
// date is shown.
func FormatWhen(t, now time.Time) string {
	t = t.In(now.Location())
	ty, tw := t.ISOWeek()
	ny, nw := now.ISOWeek()

	var layout string
	switch {
	case t.Year() != now.Year():
		layout = "_2 Jan 2006 3:04 PM"
	case ty != ny || tw != nw:
		layout = "_2 Jan 3:04 PM"
	case t.Day() != now.Day():
		layout = "Monday 3:04 PM"
	default:
		layout = "3:04 PM"
	}
	return strings.TrimSpace(t.Format(layout))
}

func FormatSession(s tree.Session, now time.Time) string {
	return FormatWhen(s.Start, now) + " to " + FormatWhen(s.End, now)
}
