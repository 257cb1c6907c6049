package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/servicehub/service-booking/internal/application"
	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	"github.com/servicehub/service-booking/internal/platform/apperr"
	"github.com/servicehub/service-booking/internal/platform/auth"
	"github.com/servicehub/service-booking/internal/platform/middleware"
	"github.com/servicehub/service-booking/internal/platform/response"
)

// BookingHandler handles HTTP requests for booking operations.
type BookingHandler struct {
	service *application.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", middleware.RequireRole(auth.RoleClient), h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/respond", middleware.RequireRole(auth.RoleProvider), h.RespondToBooking)
		bookings.PATCH("/:id/status", h.TransitionBooking)
		bookings.POST("/:id/complete", middleware.RequireRole(auth.RoleProvider, auth.RoleAdmin), h.MarkComplete)
		bookings.POST("/:id/confirm", middleware.RequireRole(auth.RoleClient, auth.RoleAdmin), h.ConfirmCompletion)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListBookings handles GET /api/v1/bookings. Clients see their requests,
// providers see their assignments.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	role, ok := middleware.GetUserRole(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	var result *apperr.PaginatedResult[application.BookingDTO]
	var err error
	switch role {
	case auth.RoleProvider:
		result, err = h.service.GetProviderBookings(c.Request.Context(), userID, page, limit)
	default:
		result, err = h.service.GetClientBookings(c.Request.Context(), userID, page, limit)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RespondToBooking handles POST /api/v1/bookings/:id/respond (provider
// accepts or declines a new request).
func (h *BookingHandler) RespondToBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Action  string `json:"action" binding:"required"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	action := application.ResponseAction(body.Action)
	if action != application.ActionAccept && action != application.ActionDecline {
		response.BadRequest(c, "action must be accept or decline")
		return
	}

	result, err := h.service.Respond(c.Request.Context(), bookingID, actor, action, body.Message)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// TransitionBooking handles PATCH /api/v1/bookings/:id/status (generic
// role-checked status transition).
func (h *BookingHandler) TransitionBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Status             string `json:"status" binding:"required"`
		CancellationReason string `json:"cancellation_reason"`
		DisputeReason      string `json:"dispute_reason"`
		Notes              string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	extra := application.TransitionExtra{
		CancellationReason: body.CancellationReason,
		DisputeReason:      body.DisputeReason,
		Notes:              body.Notes,
	}

	result, err := h.service.Transition(c.Request.Context(), bookingID, bookingDomain.Status(body.Status), actor, extra)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// MarkComplete handles POST /api/v1/bookings/:id/complete (provider reports
// the work done, opening the client confirmation window).
func (h *BookingHandler) MarkComplete(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.MarkComplete(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ConfirmCompletion handles POST /api/v1/bookings/:id/confirm (client
// accepts the finished work, optionally leaving a review, or disputes it).
func (h *BookingHandler) ConfirmCompletion(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Action        string `json:"action" binding:"required"`
		DisputeReason string `json:"dispute_reason"`
		Rating        int    `json:"rating"`
		Comment       string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	action := application.ConfirmAction(body.Action)
	if action != application.ConfirmAccept && action != application.ConfirmDispute {
		response.BadRequest(c, "action must be accept or dispute")
		return
	}

	result, err := h.service.ConfirmCompletion(c.Request.Context(), bookingID, actor, action, body.DisputeReason, body.Rating, body.Comment)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	actor, ok := currentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.Cancel(c.Request.Context(), bookingID, actor, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// currentActor builds the domain actor from the authenticated request.
func currentActor(c *gin.Context) (bookingDomain.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return bookingDomain.Actor{}, false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		return bookingDomain.Actor{}, false
	}
	return bookingDomain.Actor{ID: userID, Role: role}, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
