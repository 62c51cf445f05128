package scheduling_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schedulingHandler "github.com/medagenda/scheduling-api/internal/handler/scheduling"
	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/repository/memory"
	"github.com/medagenda/scheduling-api/internal/scheduling"
	"github.com/medagenda/scheduling-api/pkg/logger"
	"github.com/medagenda/scheduling-api/pkg/metrics"
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

type testAPI struct {
	engine  *gin.Engine
	store   *memory.Store
	doctor  *model.Doctor
	patient *model.Patient
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	calendar := scheduling.NewCalendar(store, store.Appointments())
	finder := scheduling.NewFinder(calendar)
	ranker := scheduling.NewRanker(scheduling.DefaultRankWeights(), 5)
	quiet := logger.NewLogger(&logger.Config{Output: io.Discard})
	ledger := scheduling.NewLedger(store.Appointments(), store, store.Rooms(), calendar, quiet)
	m := metrics.NewMetricsWith(prometheus.NewRegistry(), "test", "api")
	service := scheduling.NewService(store, finder, ranker, ledger, m, scheduling.DefaultConfig())

	engine := gin.New()
	schedulingHandler.NewHandler(service).RegisterRoutes(engine.Group("/api/v1"))

	now := time.Now().UTC()
	doctor := &model.Doctor{
		Base:                model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:                "Carla Mendes",
		Email:               "carla@clinic.example",
		Specialty:           "Cardiology",
		ConsultationMinutes: 30,
		ConsultationPrice:   150,
		Active:              true,
	}
	store.AddDoctor(doctor)

	patient := &model.Patient{
		Base:   model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:   "Diego Rocha",
		Email:  "diego@example.com",
		Status: model.PatientStatusActive,
	}
	store.AddPatient(patient)

	// Monday 2025-01-06, 08:00 to 12:00.
	store.AddWorkingHours(&model.WorkingHours{
		Base:     model.Base{ID: uuid.New()},
		DoctorID: doctor.ID,
		Weekday:  1,
		Start:    model.MustTimeOfDay("08:00"),
		End:      model.MustTimeOfDay("12:00"),
	})

	return &testAPI{engine: engine, store: store, doctor: doctor, patient: patient}
}

func (a *testAPI) request(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func (a *testAPI) bookBody(start string) map[string]interface{} {
	return map[string]interface{}{
		"doctor_id":         a.doctor.ID.String(),
		"patient_id":        a.patient.ID.String(),
		"date":              "2025-01-06",
		"start":             start,
		"consultation_type": "consultation",
		"urgency":           2,
	}
}

func TestBookAppointmentEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec, resp := api.request(t, http.MethodPost, "/api/v1/appointments", api.bookBody("09:00"))
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	require.True(t, resp.Success)

	var apt model.Appointment
	require.NoError(t, json.Unmarshal(resp.Data, &apt))
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Equal(t, "09:30", apt.End.String())

	// The same slot cannot be booked twice.
	rec, resp = api.request(t, http.MethodPost, "/api/v1/appointments", api.bookBody("09:00"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "time slot already booked", resp.Error.Message)
}

func TestBookAppointmentValidation(t *testing.T) {
	api := newTestAPI(t)

	body := api.bookBody("09:00")
	body["urgency"] = 9
	rec, _ := api.request(t, http.MethodPost, "/api/v1/appointments", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body = api.bookBody("09:00")
	body["consultation_type"] = "surgery"
	rec, _ = api.request(t, http.MethodPost, "/api/v1/appointments", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Outside working hours.
	rec, _ = api.request(t, http.MethodPost, "/api/v1/appointments", api.bookBody("19:00"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppointmentLifecycleEndpoints(t *testing.T) {
	api := newTestAPI(t)

	_, resp := api.request(t, http.MethodPost, "/api/v1/appointments", api.bookBody("09:00"))
	var apt model.Appointment
	require.NoError(t, json.Unmarshal(resp.Data, &apt))

	rec, _ := api.request(t, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%s/confirm", apt.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Confirming twice is a conflict, not a server error.
	rec, _ = api.request(t, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%s/confirm", apt.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp = api.request(t, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%s/cancel", apt.ID),
		map[string]interface{}{"reason": "patient request"})
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled model.Appointment
	require.NoError(t, json.Unmarshal(resp.Data, &cancelled))
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	rec, _ = api.request(t, http.MethodGet, fmt.Sprintf("/api/v1/appointments/%s", apt.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.request(t, http.MethodGet, fmt.Sprintf("/api/v1/appointments/%s", uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchSlotsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	_, _ = api.request(t, http.MethodPost, "/api/v1/appointments", api.bookBody("08:00"))

	path := fmt.Sprintf("/api/v1/slots?doctor_id=%s&date_from=2025-01-06&date_to=2025-01-06", api.doctor.ID)
	rec, resp := api.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var days []model.DaySlots
	require.NoError(t, json.Unmarshal(resp.Data, &days))
	require.Len(t, days, 1)
	require.Len(t, days[0].Slots, 7)
	assert.Equal(t, model.MustTimeOfDay("08:30"), days[0].Slots[0].Start)

	// Missing both doctor and specialty.
	rec, _ = api.request(t, http.MethodGet, "/api/v1/slots?date_from=2025-01-06&date_to=2025-01-06", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestSlotsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	path := fmt.Sprintf("/api/v1/slots/suggest?specialty=Cardiology&urgency=5&preferred_doctor_id=%s&preferred_date=2025-01-06", api.doctor.ID)
	rec, resp := api.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var suggestions []model.ScoredSlot
	require.NoError(t, json.Unmarshal(resp.Data, &suggestions))
	require.Len(t, suggestions, 5)
	assert.Contains(t, suggestions[0].Reason, "Preferred doctor")

	rec, _ = api.request(t, http.MethodGet, "/api/v1/slots/suggest?specialty=Cardiology", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "urgency is required")
}

func TestRescheduleEndpoint(t *testing.T) {
	api := newTestAPI(t)

	_, resp := api.request(t, http.MethodPost, "/api/v1/appointments", api.bookBody("09:00"))
	var apt model.Appointment
	require.NoError(t, json.Unmarshal(resp.Data, &apt))

	rec, resp := api.request(t, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%s/reschedule", apt.ID),
		map[string]interface{}{"date": "2025-01-06", "start": "10:00", "reason": "conflict"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var moved model.Appointment
	require.NoError(t, json.Unmarshal(resp.Data, &moved))
	assert.NotEqual(t, apt.ID, moved.ID)
	assert.Equal(t, model.MustTimeOfDay("10:00"), moved.Start)
	require.NotNil(t, moved.RebookedFrom)
	assert.Equal(t, apt.ID, *moved.RebookedFrom)
}
