package scheduling

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/repository"
	"github.com/medagenda/scheduling-api/pkg/metrics"
)

// Config tunes the suggestion search. Weights are deliberately exposed
// here instead of being buried as literals in the scorer.
type Config struct {
	SuggestWindowDays   int         `mapstructure:"suggest_window_days"`
	TopN                int         `mapstructure:"top_n"`
	PerDoctorCandidates int         `mapstructure:"per_doctor_candidates"`
	Weights             RankWeights `mapstructure:"weights"`
}

func DefaultConfig() Config {
	return Config{
		SuggestWindowDays:   30,
		TopN:                5,
		PerDoctorCandidates: 20,
		Weights:             DefaultRankWeights(),
	}
}

// Service orchestrates slot search, ranking and booking behind the three
// public operations: Suggest, Search and Book. Reads are advisory; only
// the ledger's reserve path is authoritative.
type Service struct {
	doctors repository.DoctorRepository
	finder  *Finder
	ranker  *Ranker
	ledger  *Ledger
	metrics *metrics.Metrics
	cfg     Config
}

func NewService(
	doctors repository.DoctorRepository,
	finder *Finder,
	ranker *Ranker,
	ledger *Ledger,
	metrics *metrics.Metrics,
	cfg Config,
) *Service {
	if cfg.SuggestWindowDays <= 0 {
		cfg.SuggestWindowDays = 30
	}
	if cfg.PerDoctorCandidates <= 0 {
		cfg.PerDoctorCandidates = 20
	}
	return &Service{
		doctors: doctors,
		finder:  finder,
		ranker:  ranker,
		ledger:  ledger,
		metrics: metrics,
		cfg:     cfg,
	}
}

// SuggestParams is the criteria vector for a "find me the best
// appointment" call.
type SuggestParams struct {
	Specialty         string
	ConsultationType  string
	Urgency           int
	PreferredDoctorID uuid.UUID
	PreferredDate     time.Time
}

// Suggest searches a fixed window from the preferred date (default today)
// across all active doctors of the specialty and returns the ranked
// top-N free slots.
func (s *Service) Suggest(ctx context.Context, params SuggestParams) ([]model.ScoredSlot, error) {
	timer := prometheus.NewTimer(s.metrics.SuggestLatency)
	defer timer.ObserveDuration()

	doctors, err := s.doctors.ListBySpecialty(ctx, params.Specialty)
	if err != nil {
		return nil, err
	}
	if len(doctors) == 0 {
		return nil, ErrNoDoctorsForSpecialty
	}

	from := params.PreferredDate
	if from.IsZero() {
		from = time.Now().UTC()
	}
	from = model.DateOnly(from)
	to := from.AddDate(0, 0, s.cfg.SuggestWindowDays)

	byID := make(map[uuid.UUID]*model.Doctor, len(doctors))
	var candidates []model.Slot
	for _, doctor := range doctors {
		byID[doctor.ID] = doctor
		slots, err := s.finder.Slots(doctor, from, to).Collect(ctx, s.cfg.PerDoctorCandidates)
		if err != nil {
			return nil, err
		}
		s.metrics.SlotsGenerated.Add(float64(len(slots)))
		candidates = append(candidates, slots...)
	}

	criteria := RankCriteria{
		Urgency:            params.Urgency,
		PreferredDoctorID:  params.PreferredDoctorID,
		RequestedSpecialty: params.Specialty,
	}
	return s.ranker.Rank(candidates, byID, criteria), nil
}

// SearchParams filters a free-slot search. Either DoctorID or Specialty
// must be set.
type SearchParams struct {
	DoctorID  uuid.UUID
	Specialty string
	DateFrom  time.Time
	DateTo    time.Time
}

// Search enumerates free slots for the matched doctors, grouped by date.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]model.DaySlots, error) {
	doctors, err := s.resolveDoctors(ctx, params)
	if err != nil {
		return nil, err
	}

	byDate := make(map[time.Time][]model.Slot)
	for _, doctor := range doctors {
		it := s.finder.Slots(doctor, params.DateFrom, params.DateTo)
		for {
			slot, ok, err := it.Next(ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			byDate[slot.Date] = append(byDate[slot.Date], slot)
		}
	}

	days := make([]model.DaySlots, 0, len(byDate))
	for date, slots := range byDate {
		sort.Slice(slots, func(i, j int) bool {
			if slots[i].Start != slots[j].Start {
				return slots[i].Start < slots[j].Start
			}
			return slots[i].DoctorID.String() < slots[j].DoctorID.String()
		})
		days = append(days, model.DaySlots{Date: date, Slots: slots})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

func (s *Service) resolveDoctors(ctx context.Context, params SearchParams) ([]*model.Doctor, error) {
	switch {
	case params.DoctorID != uuid.Nil:
		doctor, err := s.doctors.Get(ctx, params.DoctorID)
		if err != nil {
			if errors.Is(err, ErrDoctorNotFound) {
				return nil, ErrNoDoctorsFound
			}
			return nil, err
		}
		if !doctor.Active {
			return nil, ErrNoDoctorsFound
		}
		return []*model.Doctor{doctor}, nil
	case params.Specialty != "":
		doctors, err := s.doctors.ListBySpecialty(ctx, params.Specialty)
		if err != nil {
			return nil, err
		}
		if len(doctors) == 0 {
			return nil, ErrNoDoctorsFound
		}
		return doctors, nil
	default:
		return nil, ErrInvalidQuery
	}
}

// Book reserves the chosen slot through the ledger.
func (s *Service) Book(ctx context.Context, params ReserveParams) (*model.Appointment, error) {
	apt, err := s.ledger.Reserve(ctx, params)
	s.observe("reserve", err)
	if errors.Is(err, ErrConflict) {
		s.metrics.ReservationConflict.Inc()
	}
	return apt, err
}

func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.ledger.Confirm(ctx, id)
	s.observe("confirm", err)
	return apt, err
}

func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.ledger.Complete(ctx, id)
	s.observe("complete", err)
	return apt, err
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.Appointment, error) {
	apt, err := s.ledger.Cancel(ctx, id, reason)
	s.observe("cancel", err)
	return apt, err
}

func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, newStart model.TimeOfDay, reason string) (*model.Appointment, error) {
	apt, err := s.ledger.Reschedule(ctx, id, newDate, newStart, reason)
	s.observe("reschedule", err)
	if errors.Is(err, ErrConflict) {
		s.metrics.ReservationConflict.Inc()
	}
	return apt, err
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.ledger.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.ledger.List(ctx, filters)
}

func (s *Service) observe(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.ReservationsTotal.WithLabelValues(operation, outcome).Inc()
}
