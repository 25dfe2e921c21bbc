package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kidario/kidario-api/internal/middleware"
	"github.com/kidario/kidario-api/internal/service"
	appErrors "github.com/kidario/kidario-api/pkg/errors"
	"github.com/kidario/kidario-api/pkg/response"
)

// BookingHandler exposes booking lifecycle and availability endpoints.
type BookingHandler struct {
	bookings     *service.BookingService
	availability *service.AvailabilityService
	metrics      *service.MetricsService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(bookings *service.BookingService, availability *service.AvailabilityService, metrics *service.MetricsService) *BookingHandler {
	return &BookingHandler{bookings: bookings, availability: availability, metrics: metrics}
}

// Create godoc
// @Summary Create a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.BookingCreateRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.BookingCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	result, err := h.bookings.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.IncBooking(string(result.BookingStatus))
	response.Created(c, result)
}

// ParentAgenda godoc
// @Summary Parent agenda listing
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param tab query string false "upcoming or past"
// @Param child_id query string false "Filter by child"
// @Success 200 {object} response.Envelope
// @Router /bookings/parent/agenda [get]
func (h *BookingHandler) ParentAgenda(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := service.AgendaQuery{Tab: c.DefaultQuery("tab", "upcoming")}
	if childID := c.Query("child_id"); childID != "" {
		query.ChildID = &childID
	}

	agenda, err := h.bookings.ParentAgenda(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, agenda)
}

// TeacherAgenda godoc
// @Summary Teacher agenda listing
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param tab query string false "upcoming or past"
// @Param status query string false "Filter by booking status"
// @Success 200 {object} response.Envelope
// @Router /bookings/teacher/agenda [get]
func (h *BookingHandler) TeacherAgenda(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := service.AgendaQuery{Tab: c.DefaultQuery("tab", "upcoming")}
	if status := c.Query("status"); status != "" {
		query.Status = &status
	}

	agenda, err := h.bookings.TeacherAgenda(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, agenda)
}

// Detail godoc
// @Summary Booking detail with derived action flags
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Detail(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	detail, err := h.bookings.Detail(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Reschedule godoc
// @Summary Move a booking to a new slot
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body service.BookingReschedulePatch true "New slot"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/reschedule [patch]
func (h *BookingHandler) Reschedule(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var patch service.BookingReschedulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	result, err := h.bookings.Reschedule(c.Request.Context(), claims, c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Cancel godoc
// @Summary Cancel a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body service.BookingCancelPatch true "Cancellation reason"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/cancel [patch]
func (h *BookingHandler) Cancel(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var patch service.BookingCancelPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	result, err := h.bookings.Cancel(c.Request.Context(), claims, c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Complete godoc
// @Summary Complete a booking with a follow-up record
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body service.BookingCompletePatch true "Follow-up"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/complete [patch]
func (h *BookingHandler) Complete(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var patch service.BookingCompletePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload"))
		return
	}

	result, err := h.bookings.Complete(c.Request.Context(), claims, c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Slots godoc
// @Summary Bookable slots of a teacher over a date range
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher profile ID"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Param duration_minutes query int false "Lesson duration, defaults to 60"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability/slots [get]
func (h *BookingHandler) Slots(c *gin.Context) {
	query := service.SlotsQuery{
		FromISO: c.Query("from"),
		ToISO:   c.Query("to"),
	}
	if raw := c.Query("duration_minutes"); raw != "" {
		duration, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "duration_minutes must be an integer."))
			return
		}
		query.DurationMinutes = duration
	}

	slots, err := h.availability.Slots(c.Request.Context(), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}
