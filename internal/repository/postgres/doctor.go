package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/scheduling"
)

type doctorRepository struct {
	db *sqlx.DB
}

func NewDoctorRepository(db *sqlx.DB) *doctorRepository {
	return &doctorRepository{db: db}
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT id, name, email, specialty, consultation_minutes,
			   buffer_minutes, consultation_price, active,
			   created_at, updated_at
		FROM doctors
		WHERE id = $1
	`
	var doctor model.Doctor
	err := withRetry(ctx, func() error {
		return r.db.GetContext(ctx, &doctor, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, scheduling.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) ListBySpecialty(ctx context.Context, specialty string) ([]*model.Doctor, error) {
	query := `
		SELECT id, name, email, specialty, consultation_minutes,
			   buffer_minutes, consultation_price, active,
			   created_at, updated_at
		FROM doctors
		WHERE active = TRUE AND lower(specialty) = lower($1)
		ORDER BY name ASC
	`
	var doctors []*model.Doctor
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &doctors, query, specialty)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors by specialty: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) ListWorkingHours(ctx context.Context, doctorID uuid.UUID) ([]*model.WorkingHours, error) {
	query := `
		SELECT id, doctor_id, weekday, start_minute, end_minute,
			   lunch_start_minute, lunch_end_minute, created_at, updated_at
		FROM working_hours
		WHERE doctor_id = $1
		ORDER BY weekday ASC
	`
	var hours []*model.WorkingHours
	err := withRetry(ctx, func() error {
		return r.db.SelectContext(ctx, &hours, query, doctorID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list working hours: %w", err)
	}
	return hours, nil
}
