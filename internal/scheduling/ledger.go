package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/repository"
	"github.com/medagenda/scheduling-api/pkg/event"
	"github.com/medagenda/scheduling-api/pkg/logger"
)

// Ledger is the authoritative state machine for appointment lifecycles.
// All status transitions and slot reservations go through it; route-level
// code never mutates appointment state directly.
type Ledger struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	rooms        repository.RoomRepository
	calendar     *Calendar
	logger       *logger.Logger
}

func NewLedger(
	appointments repository.AppointmentRepository,
	doctors repository.DoctorRepository,
	rooms repository.RoomRepository,
	calendar *Calendar,
	logger *logger.Logger,
) *Ledger {
	return &Ledger{
		appointments: appointments,
		doctors:      doctors,
		rooms:        rooms,
		calendar:     calendar,
		logger:       logger,
	}
}

// ReserveParams carries everything needed to book one slot.
type ReserveParams struct {
	DoctorID         uuid.UUID
	PatientID        uuid.UUID
	RoomID           *uuid.UUID
	Date             time.Time
	Start            model.TimeOfDay
	ConsultationType string
	Urgency          int
	Notes            string
}

// Reserve validates the interval against the doctor's envelope, then
// hands the conflict re-check and the write to the repository as one
// atomic unit. Suggestions may have been computed from stale reads;
// this path never trusts them.
func (l *Ledger) Reserve(ctx context.Context, params ReserveParams) (*model.Appointment, error) {
	doctor, err := l.loadActiveDoctor(ctx, params.DoctorID)
	if err != nil {
		return nil, err
	}

	end := params.Start.Add(doctor.ConsultationDuration())
	if err := l.validateEnvelope(ctx, doctor, params.Date, params.Start, end); err != nil {
		return nil, err
	}

	if params.RoomID != nil {
		room, err := l.rooms.Get(ctx, *params.RoomID)
		if err != nil {
			return nil, fmt.Errorf("failed to load room: %w", err)
		}
		if !room.Active {
			return nil, fmt.Errorf("room %s is not active", room.ID)
		}
	}

	now := time.Now().UTC()
	apt := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DoctorID:  params.DoctorID,
		PatientID: params.PatientID,
		RoomID:    params.RoomID,
		Date:      model.DateOnly(params.Date),
		Start:     params.Start,
		End:       end,
		Status:    model.AppointmentStatusScheduled,
		Type:      params.ConsultationType,
		Urgency:   params.Urgency,
		Price:     doctor.ConsultationPrice,
		Notes:     params.Notes,
	}

	evt, err := event.NewOutboxEvent(event.TypeAppointmentBooked, apt)
	if err != nil {
		return nil, err
	}

	if err := l.appointments.Insert(ctx, apt, evt); err != nil {
		return nil, err
	}

	l.logger.Info("appointment reserved",
		"appointment_id", apt.ID.String(),
		"doctor_id", apt.DoctorID.String(),
		"date", apt.Date.Format("2006-01-02"),
		"start", apt.Start.String())
	return apt, nil
}

// Confirm moves a scheduled appointment to confirmed.
func (l *Ledger) Confirm(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return l.transition(ctx, id, model.AppointmentStatusConfirmed, event.TypeAppointmentConfirmed, nil)
}

// Complete moves a confirmed appointment to completed.
func (l *Ledger) Complete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return l.transition(ctx, id, model.AppointmentStatusCompleted, event.TypeAppointmentCompleted, nil)
}

// Cancel releases the appointment's interval. Cancelled appointments are
// excluded from occupancy queries, so the slot becomes bookable again
// exactly once, and the record itself is kept for audit history.
func (l *Ledger) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := l.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}
	return l.transition(ctx, id, model.AppointmentStatusCancelled, event.TypeAppointmentCancelled, &reason)
}

// Reschedule cancels the old interval and books the new one as a single
// logical operation. The repository performs both halves in one
// transaction: a failed new-slot validation leaves the original
// appointment untouched and occupying its interval.
func (l *Ledger) Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, newStart model.TimeOfDay, reason string) (*model.Appointment, error) {
	old, err := l.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !old.Status.CanTransitionTo(model.AppointmentStatusRescheduled) {
		l.logger.Warn("rejected reschedule of terminal appointment",
			"appointment_id", id.String(), "status", string(old.Status))
		return nil, ErrInvalidTransition
	}

	doctor, err := l.loadActiveDoctor(ctx, old.DoctorID)
	if err != nil {
		return nil, err
	}

	newEnd := newStart.Add(doctor.ConsultationDuration())
	if err := l.validateEnvelope(ctx, doctor, newDate, newStart, newEnd); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cancelled := *old
	cancelled.Status = model.AppointmentStatusRescheduled
	if reason != "" {
		cancelled.CancelReason = &reason
	}
	cancelled.UpdatedAt = now

	oldID := old.ID
	replacement := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DoctorID:     old.DoctorID,
		PatientID:    old.PatientID,
		RoomID:       old.RoomID,
		Date:         model.DateOnly(newDate),
		Start:        newStart,
		End:          newEnd,
		Status:       model.AppointmentStatusScheduled,
		Type:         old.Type,
		Urgency:      old.Urgency,
		Price:        doctor.ConsultationPrice,
		Notes:        old.Notes,
		RebookedFrom: &oldID,
	}

	evt, err := event.NewOutboxEvent(event.TypeAppointmentRescheduled, replacement)
	if err != nil {
		return nil, err
	}

	if err := l.appointments.Reschedule(ctx, &cancelled, replacement, evt); err != nil {
		return nil, err
	}

	l.logger.Info("appointment rescheduled",
		"old_id", oldID.String(),
		"new_id", replacement.ID.String(),
		"date", replacement.Date.Format("2006-01-02"),
		"start", replacement.Start.String())
	return replacement, nil
}

// Get returns one appointment by id.
func (l *Ledger) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return l.appointments.Get(ctx, id)
}

// List returns appointments matching the filters.
func (l *Ledger) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return l.appointments.List(ctx, filters)
}

func (l *Ledger) transition(ctx context.Context, id uuid.UUID, next model.AppointmentStatus, eventType event.EventType, cancelReason *string) (*model.Appointment, error) {
	apt, err := l.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !apt.Status.CanTransitionTo(next) {
		l.logger.Warn("rejected invalid status transition",
			"appointment_id", id.String(),
			"from", string(apt.Status),
			"to", string(next))
		return nil, ErrInvalidTransition
	}

	apt.Status = next
	if cancelReason != nil {
		apt.CancelReason = cancelReason
	}
	apt.UpdatedAt = time.Now().UTC()

	evt, err := event.NewOutboxEvent(eventType, apt)
	if err != nil {
		return nil, err
	}

	if err := l.appointments.UpdateStatus(ctx, apt, evt); err != nil {
		return nil, err
	}
	return apt, nil
}

func (l *Ledger) loadActiveDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	doctor, err := l.doctors.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load doctor: %w", err)
	}
	if !doctor.Active {
		return nil, ErrDoctorInactive
	}
	return doctor, nil
}

func (l *Ledger) validateEnvelope(ctx context.Context, doctor *model.Doctor, date time.Time, start, end model.TimeOfDay) error {
	env, err := l.calendar.WorkingEnvelope(ctx, doctor.ID, date.Weekday())
	if err != nil {
		return err
	}
	if !WithinEnvelope(start, end, env.Start, env.End) {
		return ErrEnvelope
	}
	if env.HasLunchBreak() && Overlaps(start, end, *env.LunchStart, *env.LunchEnd) {
		return ErrEnvelope
	}
	return nil
}
