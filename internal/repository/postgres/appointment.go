package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/scheduling"
)

const uniqueViolation = "23505"

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) *appointmentRepository {
	return &appointmentRepository{db: db}
}

// Insert performs the authoritative check-and-reserve. The advisory lock
// serializes writers per (doctor, date), the overlap re-check runs against
// live rows inside the transaction, and a partial unique index on
// occupying (doctor_id, appointment_date, start_minute) backs it all up.
// The outbox event commits with the appointment or not at all.
func (r *appointmentRepository) Insert(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := lockDoctorDate(ctx, tx, apt.DoctorID, apt); err != nil {
			return err
		}

		conflict, err := hasOverlap(ctx, tx, apt, uuid.Nil)
		if err != nil {
			return err
		}
		if conflict {
			return scheduling.ErrConflict
		}

		if err := insertAppointment(ctx, tx, apt); err != nil {
			return err
		}
		if err := insertOutboxEvent(ctx, tx, evt); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit reservation: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, doctor_id, patient_id, room_id, appointment_date,
			   start_minute, end_minute, status, consultation_type, urgency,
			   price, notes, cancel_reason, rebooked_from,
			   created_at, updated_at
		FROM appointments
		WHERE id = $1
	`
	var apt model.Appointment
	err := withRetry(ctx, func() error {
		return r.db.GetContext(ctx, &apt, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, scheduling.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		query := `
			UPDATE appointments
			SET status = $1, cancel_reason = $2, updated_at = $3
			WHERE id = $4
		`
		result, err := tx.ExecContext(ctx, query, apt.Status, apt.CancelReason, apt.UpdatedAt, apt.ID)
		if err != nil {
			return fmt.Errorf("failed to update appointment status: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return scheduling.ErrNotFound
		}

		if err := insertOutboxEvent(ctx, tx, evt); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit status update: %w", err)
		}
		return nil
	})
}

// Reschedule marks the old appointment rescheduled and inserts its
// replacement in one transaction. The old interval stops occupying the
// calendar inside the same critical section, so moving an appointment
// within its own slot succeeds while a genuinely taken slot still fails.
func (r *appointmentRepository) Reschedule(ctx context.Context, old, replacement *model.Appointment, evt *model.OutboxEvent) error {
	return withRetry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		if err := lockDoctorDate(ctx, tx, replacement.DoctorID, replacement); err != nil {
			return err
		}

		query := `
			UPDATE appointments
			SET status = $1, cancel_reason = $2, updated_at = $3
			WHERE id = $4 AND status IN ('scheduled', 'confirmed')
		`
		result, err := tx.ExecContext(ctx, query, old.Status, old.CancelReason, old.UpdatedAt, old.ID)
		if err != nil {
			return fmt.Errorf("failed to release old appointment: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return scheduling.ErrInvalidTransition
		}

		conflict, err := hasOverlap(ctx, tx, replacement, old.ID)
		if err != nil {
			return err
		}
		if conflict {
			return scheduling.ErrConflict
		}

		if err := insertAppointment(ctx, tx, replacement); err != nil {
			return err
		}
		if err := insertOutboxEvent(ctx, tx, evt); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit reschedule: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) ListOccupied(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]model.Interval, error) {
	query := `
		SELECT appointment_date, start_minute, end_minute
		FROM appointments
		WHERE doctor_id = $1
		AND appointment_date BETWEEN $2 AND $3
		AND status IN ('scheduled', 'confirmed')
		ORDER BY appointment_date ASC, start_minute ASC
	`
	var intervals []model.Interval
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &intervals, query, doctorID, model.DateOnly(from), model.DateOnly(to))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list occupied intervals: %w", err)
	}
	return intervals, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, doctor_id, patient_id, room_id, appointment_date,
			   start_minute, end_minute, status, consultation_type, urgency,
			   price, notes, cancel_reason, rebooked_from,
			   created_at, updated_at
		FROM appointments
		WHERE 1 = 1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.DoctorID != uuid.Nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, filters.DoctorID)
			argCount++
		}
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.DateFrom.IsZero() {
			query += fmt.Sprintf(" AND appointment_date >= $%d", argCount)
			args = append(args, model.DateOnly(filters.DateFrom))
			argCount++
		}
		if !filters.DateTo.IsZero() {
			query += fmt.Sprintf(" AND appointment_date <= $%d", argCount)
			args = append(args, model.DateOnly(filters.DateTo))
			argCount++
		}
	}

	query += " ORDER BY appointment_date ASC, start_minute ASC"

	var appointments []*model.Appointment
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &appointments, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Helpers shared by Insert and Reschedule.

func lockDoctorDate(ctx context.Context, tx *sqlx.Tx, doctorID uuid.UUID, apt *model.Appointment) error {
	key := fmt.Sprintf("%s:%s", doctorID, apt.Date.Format("2006-01-02"))
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to acquire reservation lock: %w", err)
	}
	return nil
}

func hasOverlap(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment, excludeID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1
			AND appointment_date = $2
			AND status IN ('scheduled', 'confirmed')
			AND start_minute < $4
			AND $3 < end_minute
			AND id != $5
		)
	`
	var conflict bool
	if err := tx.GetContext(ctx, &conflict, query, apt.DoctorID, apt.Date, apt.Start, apt.End, excludeID); err != nil {
		return false, fmt.Errorf("failed to check conflicts: %w", err)
	}
	return conflict, nil
}

func insertAppointment(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, doctor_id, patient_id, room_id, appointment_date,
			start_minute, end_minute, status, consultation_type, urgency,
			price, notes, cancel_reason, rebooked_from, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := tx.ExecContext(ctx, query,
		apt.ID,
		apt.DoctorID,
		apt.PatientID,
		apt.RoomID,
		apt.Date,
		apt.Start,
		apt.End,
		apt.Status,
		apt.Type,
		apt.Urgency,
		apt.Price,
		apt.Notes,
		apt.CancelReason,
		apt.RebookedFrom,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return scheduling.ErrConflict
		}
		return fmt.Errorf("failed to insert appointment: %w", err)
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, evt *model.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		evt.ID,
		evt.EventType,
		evt.Payload,
		evt.Status,
		evt.RetryCount,
		evt.CreatedAt,
		evt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}
