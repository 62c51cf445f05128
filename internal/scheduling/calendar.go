package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/repository"
)

const (
	workingHoursCacheTTL     = 5 * time.Minute
	workingHoursCacheCleanup = 10 * time.Minute
)

// Calendar answers occupancy and working-envelope queries for doctors.
// Working hours change rarely, so reads go through a short-lived cache;
// occupied intervals are always read live.
type Calendar struct {
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	hoursCache   *gocache.Cache
}

func NewCalendar(doctors repository.DoctorRepository, appointments repository.AppointmentRepository) *Calendar {
	return &Calendar{
		doctors:      doctors,
		appointments: appointments,
		hoursCache:   gocache.New(workingHoursCacheTTL, workingHoursCacheCleanup),
	}
}

// OccupiedIntervals returns intervals of occupying appointments for the
// doctor in [from, to], ordered by date then start.
func (c *Calendar) OccupiedIntervals(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]model.Interval, error) {
	intervals, err := c.appointments.ListOccupied(ctx, doctorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupied intervals: %w", err)
	}
	return intervals, nil
}

// WorkingEnvelope returns the doctor's envelope for the weekday, or
// ErrNoEnvelope when none is configured. Callers treat ErrNoEnvelope as
// "doctor unavailable that day", not a user-facing failure.
func (c *Calendar) WorkingEnvelope(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) (*model.WorkingHours, error) {
	hours, err := c.workingHours(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	for _, wh := range hours {
		if wh.Weekday == int(weekday) {
			return wh, nil
		}
	}
	return nil, ErrNoEnvelope
}

func (c *Calendar) workingHours(ctx context.Context, doctorID uuid.UUID) ([]*model.WorkingHours, error) {
	key := doctorID.String()
	if cached, ok := c.hoursCache.Get(key); ok {
		return cached.([]*model.WorkingHours), nil
	}

	hours, err := c.doctors.ListWorkingHours(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load working hours: %w", err)
	}
	c.hoursCache.Set(key, hours, gocache.DefaultExpiration)
	return hours, nil
}
