package notification

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/repository/memory"
	"github.com/medagenda/scheduling-api/pkg/event"
	"github.com/medagenda/scheduling-api/pkg/logger"
)

func testNotifier(store *memory.Store) *Notifier {
	quiet := logger.NewLogger(&logger.Config{Output: io.Discard})
	return NewNotifier(store.Patients(), store, SMTPConfig{From: "noreply@test"}, quiet)
}

func TestRenderKnownEventTypes(t *testing.T) {
	store := memory.NewStore()
	doctor := &model.Doctor{
		Base: model.Base{ID: uuid.New()},
		Name: "Helena Costa",
	}
	store.AddDoctor(doctor)

	n := testNotifier(store)
	evt := &event.AppointmentEvent{
		EventType: event.TypeAppointmentBooked,
		DoctorID:  doctor.ID,
		Date:      "2025-01-06",
		Start:     "09:00",
	}

	subject, body, ok := n.render(context.Background(), evt)
	assert.True(t, ok)
	assert.Equal(t, "Appointment booked", subject)
	assert.Contains(t, body, "Dr. Helena Costa")
	assert.Contains(t, body, "2025-01-06 at 09:00")

	evt.EventType = event.TypeAppointmentCancelled
	subject, _, ok = n.render(context.Background(), evt)
	assert.True(t, ok)
	assert.Equal(t, "Appointment cancelled", subject)
}

func TestRenderUnknownDoctorFallsBack(t *testing.T) {
	n := testNotifier(memory.NewStore())
	evt := &event.AppointmentEvent{
		EventType: event.TypeAppointmentConfirmed,
		DoctorID:  uuid.New(),
		Date:      "2025-01-06",
		Start:     "09:00",
	}

	_, body, ok := n.render(context.Background(), evt)
	assert.True(t, ok)
	assert.Contains(t, body, "your doctor")
}

func TestRenderUnknownEventType(t *testing.T) {
	n := testNotifier(memory.NewStore())
	_, _, ok := n.render(context.Background(), &event.AppointmentEvent{EventType: "appointment.unknown"})
	assert.False(t, ok)
}
