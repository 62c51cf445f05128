package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/scheduling-api/internal/model"
)

type EventType string

const (
	TypeAppointmentBooked      EventType = "appointment.booked"
	TypeAppointmentConfirmed   EventType = "appointment.confirmed"
	TypeAppointmentCompleted   EventType = "appointment.completed"
	TypeAppointmentCancelled   EventType = "appointment.cancelled"
	TypeAppointmentRescheduled EventType = "appointment.rescheduled"
)

// Channel is the broker channel all appointment lifecycle events go to.
const Channel = "appointment.events"

// AppointmentEvent is the payload handed to the notification collaborator.
type AppointmentEvent struct {
	EventType     EventType `json:"event_type"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	Date          string    `json:"date"`
	Start         string    `json:"start"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewOutboxEvent builds the outbox row for one lifecycle transition.
// It is persisted in the same transaction as the appointment write.
func NewOutboxEvent(eventType EventType, apt *model.Appointment) (*model.OutboxEvent, error) {
	payload, err := json.Marshal(AppointmentEvent{
		EventType:     eventType,
		AppointmentID: apt.ID,
		DoctorID:      apt.DoctorID,
		PatientID:     apt.PatientID,
		Date:          apt.Date.Format("2006-01-02"),
		Start:         apt.Start.String(),
		Timestamp:     time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	now := time.Now().UTC()
	return &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: string(eventType),
		Payload:   payload,
		Status:    model.OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
