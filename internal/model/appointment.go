package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled   AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

// statusTransitions is the appointment lifecycle:
//
//	scheduled → confirmed → completed
//	scheduled|confirmed → cancelled
//	scheduled|confirmed → rescheduled
//
// completed, cancelled and rescheduled are terminal.
var statusTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled:   {AppointmentStatusConfirmed, AppointmentStatusCancelled, AppointmentStatusRescheduled},
	AppointmentStatusConfirmed:   {AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusRescheduled},
	AppointmentStatusCompleted:   {},
	AppointmentStatusCancelled:   {},
	AppointmentStatusRescheduled: {},
}

// Valid reports whether s is a known lifecycle status.
func (s AppointmentStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s AppointmentStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// Occupies reports whether an appointment in this status consumes its
// interval on the doctor's calendar.
func (s AppointmentStatus) Occupies() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
}

type Appointment struct {
	Base
	DoctorID     uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	RoomID       *uuid.UUID        `db:"room_id" json:"room_id,omitempty"`
	Date         time.Time         `db:"appointment_date" json:"date"`
	Start        TimeOfDay         `db:"start_minute" json:"start"`
	End          TimeOfDay         `db:"end_minute" json:"end"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Type         string            `db:"consultation_type" json:"consultation_type"`
	Urgency      int               `db:"urgency" json:"urgency"`
	Price        float64           `db:"price" json:"price"`
	Notes        string            `db:"notes" json:"notes,omitempty"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	RebookedFrom *uuid.UUID        `db:"rebooked_from" json:"rebooked_from,omitempty"`
}

// StartAt anchors the appointment start on its calendar date.
func (a *Appointment) StartAt() time.Time {
	return a.Start.At(a.Date)
}

// EndAt anchors the appointment end on its calendar date.
func (a *Appointment) EndAt() time.Time {
	return a.End.At(a.Date)
}

type BookAppointmentRequest struct {
	DoctorID         string `json:"doctor_id" binding:"required,uuid"`
	PatientID        string `json:"patient_id" binding:"required,uuid"`
	RoomID           string `json:"room_id" binding:"omitempty,uuid"`
	Date             string `json:"date" binding:"required,datetime=2006-01-02"`
	Start            string `json:"start" binding:"required,timeofday"`
	ConsultationType string `json:"consultation_type" binding:"required,oneof=consultation followup evaluation"`
	Urgency          int    `json:"urgency" binding:"required,min=1,max=5"`
	Notes            string `json:"notes" binding:"max=1000"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type RescheduleAppointmentRequest struct {
	Date   string `json:"date" binding:"required,datetime=2006-01-02"`
	Start  string `json:"start" binding:"required,timeofday"`
	Reason string `json:"reason" binding:"max=500"`
}

type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Status    AppointmentStatus
	DateFrom  time.Time
	DateTo    time.Time
}
