package model

import (
	"time"

	"github.com/google/uuid"
)

// Slot is an ephemeral bookable interval produced by the slot finder.
// It is never persisted; booking re-validates against live data.
type Slot struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     time.Time `json:"date"`
	Start    TimeOfDay `json:"start"`
	End      TimeOfDay `json:"end"`
	Price    float64   `json:"price"`
}

// ScoredSlot is a slot ranked for a suggestion request.
type ScoredSlot struct {
	Slot
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// DaySlots groups free slots for one calendar date.
type DaySlots struct {
	Date  time.Time `json:"date"`
	Slots []Slot    `json:"slots"`
}

type SuggestRequest struct {
	Specialty         string `form:"specialty" binding:"required"`
	ConsultationType  string `form:"consultation_type" binding:"omitempty,oneof=consultation followup evaluation"`
	Urgency           int    `form:"urgency" binding:"required,min=1,max=5"`
	PreferredDoctorID string `form:"preferred_doctor_id" binding:"omitempty,uuid"`
	PreferredDate     string `form:"preferred_date" binding:"omitempty,datetime=2006-01-02"`
}

type SearchRequest struct {
	DoctorID         string `form:"doctor_id" binding:"omitempty,uuid"`
	Specialty        string `form:"specialty"`
	DateFrom         string `form:"date_from" binding:"required,datetime=2006-01-02"`
	DateTo           string `form:"date_to" binding:"required,datetime=2006-01-02"`
	ConsultationType string `form:"consultation_type" binding:"omitempty,oneof=consultation followup evaluation"`
}
