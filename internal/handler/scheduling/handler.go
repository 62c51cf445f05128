package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/medagenda/scheduling-api/internal/model"
	"github.com/medagenda/scheduling-api/internal/scheduling"
	apperrors "github.com/medagenda/scheduling-api/pkg/errors"
	"github.com/medagenda/scheduling-api/pkg/httputil"
)

const dateLayout = "2006-01-02"

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
			_, err := model.ParseTimeOfDay(fl.Field().String())
			return err == nil
		})
	}
}

type Handler struct {
	service *scheduling.Service
}

func NewHandler(service *scheduling.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	appointments := rg.Group("/appointments")
	{
		appointments.POST("", h.BookAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/confirm", h.ConfirmAppointment)
		appointments.POST("/:id/complete", h.CompleteAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)
		appointments.POST("/:id/reschedule", h.RescheduleAppointment)
	}

	slots := rg.Group("/slots")
	{
		slots.GET("", h.SearchSlots)
		slots.GET("/suggest", h.SuggestSlots)
	}
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid booking request", err))
		return
	}

	start, err := model.ParseTimeOfDay(req.Start)
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid start time", err))
		return
	}
	date, _ := time.Parse(dateLayout, req.Date)

	params := scheduling.ReserveParams{
		DoctorID:         uuid.MustParse(req.DoctorID),
		PatientID:        uuid.MustParse(req.PatientID),
		Date:             date,
		Start:            start,
		ConsultationType: req.ConsultationType,
		Urgency:          req.Urgency,
		Notes:            req.Notes,
	}
	if req.RoomID != "" {
		roomID := uuid.MustParse(req.RoomID)
		params.RoomID = &roomID
	}

	apt, err := h.service.Book(c.Request.Context(), params)
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}

	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid appointment ID", err))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	filters := &model.AppointmentFilters{}

	if id := c.Query("doctor_id"); id != "" {
		doctorID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid doctor ID", err))
			return
		}
		filters.DoctorID = doctorID
	}
	if id := c.Query("patient_id"); id != "" {
		patientID, err := uuid.Parse(id)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid patient ID", err))
			return
		}
		filters.PatientID = patientID
	}
	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
		if !filters.Status.Valid() {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid status", nil))
			return
		}
	}
	if date := c.Query("date_from"); date != "" {
		from, err := time.Parse(dateLayout, date)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid date_from", err))
			return
		}
		filters.DateFrom = from
	}
	if date := c.Query("date_to"); date != "" {
		to, err := time.Parse(dateLayout, date)
		if err != nil {
			httputil.RespondWithError(c, apperrors.NewBadRequest("invalid date_to", err))
			return
		}
		filters.DateTo = to
	}

	apts, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}

	httputil.RespondWithSuccess(c, apts)
}

func (h *Handler) ConfirmAppointment(c *gin.Context) {
	h.transition(c, h.service.Confirm)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	h.transition(c, h.service.Complete)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid appointment ID", err))
		return
	}

	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid cancel request", err))
		return
	}

	apt, err := h.service.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) RescheduleAppointment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid appointment ID", err))
		return
	}

	var req model.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid reschedule request", err))
		return
	}

	start, err := model.ParseTimeOfDay(req.Start)
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid start time", err))
		return
	}
	date, _ := time.Parse(dateLayout, req.Date)

	apt, err := h.service.Reschedule(c.Request.Context(), id, date, start, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) SuggestSlots(c *gin.Context) {
	var req model.SuggestRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid suggest request", err))
		return
	}

	params := scheduling.SuggestParams{
		Specialty:        req.Specialty,
		ConsultationType: req.ConsultationType,
		Urgency:          req.Urgency,
	}
	if req.PreferredDoctorID != "" {
		params.PreferredDoctorID = uuid.MustParse(req.PreferredDoctorID)
	}
	if req.PreferredDate != "" {
		params.PreferredDate, _ = time.Parse(dateLayout, req.PreferredDate)
	}

	suggestions, err := h.service.Suggest(c.Request.Context(), params)
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}

	httputil.RespondWithSuccess(c, suggestions)
}

func (h *Handler) SearchSlots(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid search request", err))
		return
	}

	from, _ := time.Parse(dateLayout, req.DateFrom)
	to, _ := time.Parse(dateLayout, req.DateTo)
	if to.Before(from) {
		httputil.RespondWithError(c, apperrors.NewBadRequest("date_to before date_from", nil))
		return
	}

	params := scheduling.SearchParams{
		Specialty: req.Specialty,
		DateFrom:  from,
		DateTo:    to,
	}
	if req.DoctorID != "" {
		params.DoctorID = uuid.MustParse(req.DoctorID)
	}

	days, err := h.service.Search(c.Request.Context(), params)
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}

	httputil.RespondWithSuccess(c, days)
}

type transitionFunc func(ctx context.Context, id uuid.UUID) (*model.Appointment, error)

func (h *Handler) transition(c *gin.Context, fn transitionFunc) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.NewBadRequest("invalid appointment ID", err))
		return
	}

	apt, err := fn(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

// mapError translates scheduling sentinels into transport errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, scheduling.ErrConflict):
		return apperrors.NewConflict("time slot already booked", err)
	case errors.Is(err, scheduling.ErrInvalidTransition),
		errors.Is(err, scheduling.ErrAlreadyTerminal):
		return apperrors.NewConflict(err.Error(), err)
	case errors.Is(err, scheduling.ErrNotFound),
		errors.Is(err, scheduling.ErrDoctorNotFound):
		return apperrors.NewNotFound("appointment", err)
	case errors.Is(err, scheduling.ErrEnvelope),
		errors.Is(err, scheduling.ErrNoEnvelope),
		errors.Is(err, scheduling.ErrDoctorInactive),
		errors.Is(err, scheduling.ErrNoDoctorsForSpecialty),
		errors.Is(err, scheduling.ErrNoDoctorsFound),
		errors.Is(err, scheduling.ErrInvalidQuery):
		return apperrors.NewBadRequest(err.Error(), err)
	case errors.Is(err, scheduling.ErrStoreUnavailable):
		return apperrors.NewUnavailable("scheduling store unavailable", err)
	default:
		return apperrors.NewInternal(err)
	}
}
