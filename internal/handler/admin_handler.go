package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/servicehub/service-booking/internal/application"
	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	"github.com/servicehub/service-booking/internal/platform/auth"
	"github.com/servicehub/service-booking/internal/platform/middleware"
	"github.com/servicehub/service-booking/internal/platform/response"
)

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service *application.BookingService
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService) *AdminBookingHandler {
	return &AdminBookingHandler{service: service}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/bookings/disputed", h.ListDisputes)
		admin.PATCH("/bookings/:id/status", h.ResolveBooking)
		admin.GET("/stats/bookings", h.BookingStats)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// ListDisputes handles GET /api/v1/admin/bookings/disputed (the dispute
// review queue).
func (h *AdminBookingHandler) ListDisputes(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.service.ListDisputedBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// ResolveBooking handles PATCH /api/v1/admin/bookings/:id/status. Admins use
// the same transition machinery as regular parties, with the extra admin
// edges, typically to resolve disputes.
func (h *AdminBookingHandler) ResolveBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	adminID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body struct {
		Status             string `json:"status" binding:"required"`
		CancellationReason string `json:"cancellation_reason"`
		Notes              string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	actor := bookingDomain.Actor{ID: adminID, Role: auth.RoleAdmin}
	extra := application.TransitionExtra{
		CancellationReason: body.CancellationReason,
		Notes:              body.Notes,
	}

	result, err := h.service.Transition(c.Request.Context(), bookingID, bookingDomain.Status(body.Status), actor, extra)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
