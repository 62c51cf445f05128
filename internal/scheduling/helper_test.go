package scheduling_test

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/repository/memory"
	"github.com/medagenda/scheduling-api/internal/scheduling"
	"github.com/medagenda/scheduling-api/pkg/logger"
	"github.com/medagenda/scheduling-api/pkg/metrics"
)

// monday is a fixed reference date so tests are independent of the clock.
var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	store    *memory.Store
	calendar *scheduling.Calendar
	finder   *scheduling.Finder
	ledger   *scheduling.Ledger
	service  *scheduling.Service
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	calendar := scheduling.NewCalendar(store, store.Appointments())
	finder := scheduling.NewFinder(calendar)
	ranker := scheduling.NewRanker(scheduling.DefaultRankWeights(), 5)

	quiet := logger.NewLogger(&logger.Config{Output: io.Discard})
	ledger := scheduling.NewLedger(store.Appointments(), store, store.Rooms(), calendar, quiet)

	m := metrics.NewMetricsWith(prometheus.NewRegistry(), "test", "scheduling")
	cfg := scheduling.DefaultConfig()
	service := scheduling.NewService(store, finder, ranker, ledger, m, cfg)

	return &testEnv{
		store:    store,
		calendar: calendar,
		finder:   finder,
		ledger:   ledger,
		service:  service,
	}
}

func (e *testEnv) addDoctor(specialty string, consultationMinutes, bufferMinutes int) *model.Doctor {
	now := time.Now().UTC()
	doctor := &model.Doctor{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:                "Alice Santos",
		Email:               "alice@clinic.example",
		Specialty:           specialty,
		ConsultationMinutes: consultationMinutes,
		BufferMinutes:       bufferMinutes,
		ConsultationPrice:   150,
		Active:              true,
	}
	e.store.AddDoctor(doctor)
	return doctor
}

func (e *testEnv) addPatient() *model.Patient {
	now := time.Now().UTC()
	patient := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:   "Bruno Lima",
		Email:  "bruno@example.com",
		Status: model.PatientStatusActive,
	}
	e.store.AddPatient(patient)
	return patient
}

func (e *testEnv) addHours(doctorID uuid.UUID, weekday int, start, end string, lunch ...string) {
	wh := &model.WorkingHours{
		Base:     model.Base{ID: uuid.New()},
		DoctorID: doctorID,
		Weekday:  weekday,
		Start:    model.MustTimeOfDay(start),
		End:      model.MustTimeOfDay(end),
	}
	if len(lunch) == 2 {
		ls := model.MustTimeOfDay(lunch[0])
		le := model.MustTimeOfDay(lunch[1])
		wh.LunchStart = &ls
		wh.LunchEnd = &le
	}
	e.store.AddWorkingHours(wh)
}
