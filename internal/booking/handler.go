package booking

import (
	"net/http"
	"strconv"
	"time"

	"huletfish/internal/api"
	"huletfish/internal/auth"
	"huletfish/internal/offering"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	offering.RegisterValidators()
	return &Handler{
		service: service,
	}
}

// @Summary      Request a booking
// @Description  Tourist-only. The booking starts pending until the host responds.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body booking.CreateBookingRequest true "Booking request"
// @Success      201 {object} booking.View
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /bookings [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	view, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

// @Summary      List my bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} booking.View
// @Router       /bookings [get]
func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	views, err := h.service.ListForTourist(c.Request.Context(), actor)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// @Summary      List bookings of my offerings
// @Tags         host,bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} booking.View
// @Failure      403 {object} api.ErrorResponse
// @Router       /host/bookings [get]
func (h *Handler) ListHosted(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	views, err := h.service.ListForHost(c.Request.Context(), actor)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// @Summary      List bookings of an offering
// @Tags         admin,bookings
// @Produce      json
// @Security     BearerAuth
// @Param        offeringID path int true "Offering ID"
// @Success      200 {array} booking.View
// @Failure      403 {object} api.ErrorResponse
// @Router       /admin/offerings/{offeringID}/bookings [get]
func (h *Handler) ListForOffering(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("offeringID"))
	if err != nil || id <= 0 {
		api.BadRequest(c, "Invalid offering ID")
		return
	}

	views, err := h.service.ListForOffering(c.Request.Context(), actor, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, views)
}

// @Summary      Get a booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path string true "Booking reference, e.g. HF250101001"
// @Success      200 {object} booking.View
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /bookings/{bookingID} [get]
func (h *Handler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	view, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary      Accept or reject a booking
// @Tags         host,bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path string true "Booking reference"
// @Param        request body booking.RespondRequest true "Host response"
// @Success      200 {object} booking.View
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /bookings/{bookingID}/respond [post]
func (h *Handler) Respond(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	view, err := h.service.Respond(c.Request.Context(), actor, id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary      Cancel a booking
// @Description  Tourist, host or admin. Confirmed bookings cannot be cancelled close to the start, except by an admin.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path string true "Booking reference"
// @Param        request body booking.CancelRequest false "Cancellation reason"
// @Success      200 {object} booking.View
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      422 {object} api.ErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
// @Router       /admin/bookings/{bookingID}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			api.RespondBindError(c, err)
			return
		}
	}

	view, err := h.service.Cancel(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary      Mark a booking completed
// @Tags         admin,bookings
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path string true "Booking reference"
// @Success      200 {object} booking.View
// @Failure      403 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/bookings/{bookingID}/complete [post]
func (h *Handler) Complete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	view, err := h.service.Complete(c.Request.Context(), actor, id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// @Summary      Slot availability for one date
// @Tags         offerings
// @Produce      json
// @Param        offeringID path  int    true "Offering ID"
// @Param        date       query string true "Date (YYYY-MM-DD)"
// @Success      200 {object} booking.DayAvailability
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /offerings/{offeringID}/availability [get]
func (h *Handler) Availability(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("offeringID"))
	if err != nil || id <= 0 {
		api.BadRequest(c, "Invalid offering ID")
		return
	}
	date := c.Query("date")
	if date == "" {
		api.BadRequest(c, "date query parameter is required")
		return
	}

	day, err := h.service.Availability(c.Request.Context(), id, date)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, day)
}

// @Summary      Booking analytics
// @Tags         admin,analytics
// @Produce      json
// @Security     BearerAuth
// @Param        from     query string false "RFC3339 start (default: 30 days ago)"
// @Param        to       query string false "RFC3339 end (default: now)"
// @Param        group_by query string false "day or offering (default: day)"
// @Success      200 {object} booking.Stats
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /admin/analytics/bookings [get]
func (h *Handler) Stats(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			api.BadRequest(c, "Invalid 'from' time, expected RFC3339")
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			api.BadRequest(c, "Invalid 'to' time, expected RFC3339")
			return
		}
	}
	groupBy := c.DefaultQuery("group_by", GroupByDay)

	stats, err := h.service.Stats(c.Request.Context(), actor, from, to, groupBy)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func bookingID(c *gin.Context) (string, bool) {
	id := c.Param("bookingID")
	if _, _, err := ParseBookingID(id); err != nil {
		api.RespondError(c, err)
		return "", false
	}
	return id, true
}

func actorOrAbort(c *gin.Context) (auth.Actor, bool) {
	actor, ok := auth.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return auth.Actor{}, false
	}
	return actor, true
}
