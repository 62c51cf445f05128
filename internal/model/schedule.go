package model

import (
	"time"

	"github.com/google/uuid"
)

// WorkingHours is a doctor's recurring envelope for one weekday.
// At most one active row exists per (doctor, weekday); slots may only be
// generated inside [Start, End), minus the lunch break when configured.
type WorkingHours struct {
	Base
	DoctorID   uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Weekday    int        `db:"weekday" json:"weekday"`
	Start      TimeOfDay  `db:"start_minute" json:"start"`
	End        TimeOfDay  `db:"end_minute" json:"end"`
	LunchStart *TimeOfDay `db:"lunch_start_minute" json:"lunch_start,omitempty"`
	LunchEnd   *TimeOfDay `db:"lunch_end_minute" json:"lunch_end,omitempty"`
}

// HasLunchBreak reports whether both lunch bounds are configured.
func (w *WorkingHours) HasLunchBreak() bool {
	return w.LunchStart != nil && w.LunchEnd != nil && *w.LunchStart < *w.LunchEnd
}

// Interval is an occupied time range on a doctor's calendar.
type Interval struct {
	Date  time.Time `db:"appointment_date" json:"date"`
	Start TimeOfDay `db:"start_minute" json:"start"`
	End   TimeOfDay `db:"end_minute" json:"end"`
}
