package model

// Room is an attribute of an appointment. Room occupancy is not part of
// the booking conflict rules; two appointments may reference the same
// room for overlapping intervals.
type Room struct {
	Base
	Name     string `db:"name" json:"name"`
	Capacity int    `db:"capacity" json:"capacity"`
	Active   bool   `db:"active" json:"active"`
}
