package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/scheduling-api/internal/model"
)

// All repository interfaces in one file
type (
	// DoctorRepository is read-only for the scheduling core.
	DoctorRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		// ListBySpecialty returns active doctors only.
		ListBySpecialty(ctx context.Context, specialty string) ([]*model.Doctor, error)
		ListWorkingHours(ctx context.Context, doctorID uuid.UUID) ([]*model.WorkingHours, error)
	}

	PatientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	}

	RoomRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Room, error)
	}

	// AppointmentRepository owns the authoritative check-and-write.
	AppointmentRepository interface {
		// Insert persists a new appointment and its outbox event in one
		// atomic unit. Overlap against live occupying appointments is
		// re-checked inside that unit; the loser of a race observes
		// scheduling.ErrConflict and no partial state is left behind.
		Insert(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// UpdateStatus persists a lifecycle transition together with its
		// outbox event.
		UpdateStatus(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error
		// Reschedule cancels old and inserts replacement as a single
		// transaction: both halves commit or neither does.
		Reschedule(ctx context.Context, old, replacement *model.Appointment, evt *model.OutboxEvent) error
		// ListOccupied returns intervals of occupying appointments
		// (scheduled/confirmed) in [from, to], ordered by date then start.
		ListOccupied(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]model.Interval, error)
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	}

	OutboxRepository interface {
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}
)
