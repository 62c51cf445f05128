package scheduling

import (
	"time"

	"github.com/medagenda/scheduling-api/internal/model"
)

// Overlaps reports whether two half-open [start, end) intervals intersect.
// Touching boundaries (09:00-09:30 followed by 09:30-10:00) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd model.TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// OverlapsAny reports whether [start, end) on date intersects any of the
// given occupied intervals.
func OverlapsAny(date time.Time, start, end model.TimeOfDay, occupied []model.Interval) bool {
	for _, iv := range occupied {
		if !sameDate(iv.Date, date) {
			continue
		}
		if Overlaps(start, end, iv.Start, iv.End) {
			return true
		}
	}
	return false
}

// WithinEnvelope reports whether [start, end) fits inside the envelope,
// using the same half-open rule: an interval ending exactly at the
// envelope end is still inside.
func WithinEnvelope(start, end, envStart, envEnd model.TimeOfDay) bool {
	return start >= envStart && end <= envEnd && start < end
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
