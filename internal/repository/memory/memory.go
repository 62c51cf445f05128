package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/scheduling"
)

// Store is an in-memory implementation of the repository interfaces,
// used by tests and the demo seeding path. A single mutex makes the
// check-then-write in Insert and Reschedule atomic, mirroring what the
// postgres implementation achieves with transactions and advisory locks.
type Store struct {
	mu           sync.Mutex
	doctors      map[uuid.UUID]*model.Doctor
	patients     map[uuid.UUID]*model.Patient
	rooms        map[uuid.UUID]*model.Room
	workingHours map[uuid.UUID][]*model.WorkingHours
	appointments map[uuid.UUID]*model.Appointment
	outbox       []*model.OutboxEvent
}

func NewStore() *Store {
	return &Store{
		doctors:      make(map[uuid.UUID]*model.Doctor),
		patients:     make(map[uuid.UUID]*model.Patient),
		rooms:        make(map[uuid.UUID]*model.Room),
		workingHours: make(map[uuid.UUID][]*model.WorkingHours),
		appointments: make(map[uuid.UUID]*model.Appointment),
	}
}

// Fixture helpers

func (s *Store) AddDoctor(d *model.Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[d.ID] = d
}

func (s *Store) AddPatient(p *model.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[p.ID] = p
}

func (s *Store) AddRoom(r *model.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

func (s *Store) AddWorkingHours(wh *model.WorkingHours) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workingHours[wh.DoctorID] = append(s.workingHours[wh.DoctorID], wh)
}

// OutboxEvents returns a snapshot of all recorded events, for tests.
func (s *Store) OutboxEvents() []*model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.OutboxEvent, len(s.outbox))
	copy(out, s.outbox)
	return out
}

// DoctorRepository

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doctor, ok := s.doctors[id]
	if !ok {
		return nil, scheduling.ErrDoctorNotFound
	}
	cloned := *doctor
	return &cloned, nil
}

func (s *Store) ListBySpecialty(ctx context.Context, specialty string) ([]*model.Doctor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Doctor
	for _, d := range s.doctors {
		if d.Active && strings.EqualFold(d.Specialty, specialty) {
			cloned := *d
			out = append(out, &cloned)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *Store) ListWorkingHours(ctx context.Context, doctorID uuid.UUID) ([]*model.WorkingHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hours := s.workingHours[doctorID]
	out := make([]*model.WorkingHours, 0, len(hours))
	for _, wh := range hours {
		cloned := *wh
		out = append(out, &cloned)
	}
	return out, nil
}

// Patients and Rooms

type PatientStore struct{ *Store }

func (s *Store) Patients() *PatientStore { return &PatientStore{s} }

func (p *PatientStore) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	patient, ok := p.patients[id]
	if !ok {
		return nil, scheduling.ErrNotFound
	}
	cloned := *patient
	return &cloned, nil
}

type RoomStore struct{ *Store }

func (s *Store) Rooms() *RoomStore { return &RoomStore{s} }

func (r *RoomStore) Get(ctx context.Context, id uuid.UUID) (*model.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, scheduling.ErrNotFound
	}
	cloned := *room
	return &cloned, nil
}

// AppointmentRepository

type AppointmentStore struct{ *Store }

func (s *Store) Appointments() *AppointmentStore { return &AppointmentStore{s} }

func (a *AppointmentStore) Insert(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conflictsLocked(apt, uuid.Nil) {
		return scheduling.ErrConflict
	}

	cloned := *apt
	a.appointments[apt.ID] = &cloned
	a.outbox = append(a.outbox, evt)
	return nil
}

func (a *AppointmentStore) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	apt, ok := a.appointments[id]
	if !ok {
		return nil, scheduling.ErrNotFound
	}
	cloned := *apt
	return &cloned, nil
}

func (a *AppointmentStore) UpdateStatus(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.appointments[apt.ID]; !ok {
		return scheduling.ErrNotFound
	}
	cloned := *apt
	a.appointments[apt.ID] = &cloned
	a.outbox = append(a.outbox, evt)
	return nil
}

func (a *AppointmentStore) Reschedule(ctx context.Context, old, replacement *model.Appointment, evt *model.OutboxEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.appointments[old.ID]; !ok {
		return scheduling.ErrNotFound
	}
	// The old interval is released inside the same critical section, so
	// moving an appointment within its own slot is allowed.
	if a.conflictsLocked(replacement, old.ID) {
		return scheduling.ErrConflict
	}

	clonedOld := *old
	clonedNew := *replacement
	a.appointments[old.ID] = &clonedOld
	a.appointments[replacement.ID] = &clonedNew
	a.outbox = append(a.outbox, evt)
	return nil
}

func (a *AppointmentStore) ListOccupied(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]model.Interval, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []model.Interval
	for _, apt := range a.appointments {
		if apt.DoctorID != doctorID || !apt.Status.Occupies() {
			continue
		}
		if apt.Date.Before(model.DateOnly(from)) || apt.Date.After(model.DateOnly(to)) {
			continue
		}
		out = append(out, model.Interval{Date: apt.Date, Start: apt.Start, End: apt.End})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (a *AppointmentStore) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []*model.Appointment
	for _, apt := range a.appointments {
		if filters != nil {
			if filters.DoctorID != uuid.Nil && apt.DoctorID != filters.DoctorID {
				continue
			}
			if filters.PatientID != uuid.Nil && apt.PatientID != filters.PatientID {
				continue
			}
			if filters.Status != "" && apt.Status != filters.Status {
				continue
			}
			if !filters.DateFrom.IsZero() && apt.Date.Before(model.DateOnly(filters.DateFrom)) {
				continue
			}
			if !filters.DateTo.IsZero() && apt.Date.After(model.DateOnly(filters.DateTo)) {
				continue
			}
		}
		cloned := *apt
		out = append(out, &cloned)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Start < out[j].Start
	})
	return out, nil
}

func (a *AppointmentStore) conflictsLocked(candidate *model.Appointment, excludeID uuid.UUID) bool {
	for _, existing := range a.appointments {
		if existing.ID == excludeID {
			continue
		}
		if existing.DoctorID != candidate.DoctorID || !existing.Status.Occupies() {
			continue
		}
		if !existing.Date.Equal(candidate.Date) {
			continue
		}
		if scheduling.Overlaps(candidate.Start, candidate.End, existing.Start, existing.End) {
			return true
		}
	}
	return false
}

// OutboxRepository

type OutboxStore struct{ *Store }

func (s *Store) Outbox() *OutboxStore { return &OutboxStore{s} }

func (o *OutboxStore) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*model.OutboxEvent
	for _, evt := range o.outbox {
		if evt.Status != model.OutboxStatusPending {
			continue
		}
		out = append(out, evt)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (o *OutboxStore) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return o.setStatus(id, model.OutboxStatusProcessed, nil)
}

func (o *OutboxStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return o.setStatus(id, model.OutboxStatusFailed, &errMsg)
}

func (o *OutboxStore) setStatus(id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, evt := range o.outbox {
		if evt.ID != id {
			continue
		}
		evt.Status = status
		evt.ErrorMessage = errMsg
		evt.UpdatedAt = now
		if status == model.OutboxStatusProcessed {
			evt.ProcessedAt = &now
		}
		return nil
	}
	return scheduling.ErrNotFound
}
