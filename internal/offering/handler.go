package offering

import (
	"net/http"
	"strconv"

	"huletfish/internal/api"
	"huletfish/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	RegisterValidators()
	return &Handler{
		service: service,
	}
}

// @Summary      List offerings
// @Description  Active, approved offerings of approved hosts, newest first.
// @Tags         offerings
// @Produce      json
// @Param        category query string false "Category filter"
// @Param        limit    query int    false "Page size (max 100)"
// @Param        offset   query int    false "Offset"
// @Success      200 {array} offering.Offering
// @Failure      500 {object} api.ErrorResponse
// @Router       /offerings [get]
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{Category: Category(c.Query("category"))}
	filter.Limit, _ = strconv.Atoi(c.Query("limit"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset"))
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	offerings, err := h.service.ListPublic(c.Request.Context(), filter)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, offerings)
}

// @Summary      Get an offering
// @Tags         offerings
// @Produce      json
// @Param        offeringID path int true "Offering ID"
// @Success      200 {object} offering.Offering
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /offerings/{offeringID} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := offeringID(c)
	if !ok {
		return
	}

	o, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

// @Summary      List my offerings
// @Tags         host,offerings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} offering.Offering
// @Failure      401 {object} api.ErrorResponse
// @Router       /host/offerings [get]
func (h *Handler) ListMine(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	offerings, err := h.service.ListByHost(c.Request.Context(), actor)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, offerings)
}

// @Summary      Create an offering
// @Description  Host-only: the offering starts pending admin approval.
// @Tags         host,offerings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body offering.OfferingRequest true "Offering payload"
// @Success      201 {object} offering.Offering
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /host/offerings [post]
func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req OfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	o, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, o)
}

// @Summary      Update an offering
// @Description  Owner or admin. A host edit resets approval.
// @Tags         host,offerings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        offeringID path int true "Offering ID"
// @Param        request body offering.OfferingRequest true "Offering payload"
// @Success      200 {object} offering.Offering
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /host/offerings/{offeringID} [put]
func (h *Handler) Update(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := offeringID(c)
	if !ok {
		return
	}

	var req OfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	o, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

// @Summary      Deactivate an offering
// @Tags         host,offerings
// @Produce      json
// @Security     BearerAuth
// @Param        offeringID path int true "Offering ID"
// @Success      200 {object} api.MessageResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /host/offerings/{offeringID} [delete]
func (h *Handler) Deactivate(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := offeringID(c)
	if !ok {
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), actor, id); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Offering deactivated"})
}

// @Summary      Approve an offering
// @Tags         admin,offerings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        offeringID path int true "Offering ID"
// @Param        request body offering.ApprovalRequest false "Review note"
// @Success      200 {object} offering.Offering
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/offerings/{offeringID}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	h.review(c, true)
}

// @Summary      Reject an offering
// @Tags         admin,offerings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        offeringID path int true "Offering ID"
// @Param        request body offering.ApprovalRequest false "Review note"
// @Success      200 {object} offering.Offering
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /admin/offerings/{offeringID}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	h.review(c, false)
}

func (h *Handler) review(c *gin.Context, approve bool) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := offeringID(c)
	if !ok {
		return
	}

	var req ApprovalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			api.RespondBindError(c, err)
			return
		}
	}

	var (
		o   *Offering
		err error
	)
	if approve {
		o, err = h.service.Approve(c.Request.Context(), actor, id, req.Note)
	} else {
		o, err = h.service.Reject(c.Request.Context(), actor, id, req.Note)
	}
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, o)
}

func offeringID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("offeringID"))
	if err != nil || id <= 0 {
		api.BadRequest(c, "Invalid offering ID")
		return 0, false
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
