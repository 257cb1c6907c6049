package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/servicehub/service-booking/internal/application"
	"github.com/servicehub/service-booking/internal/platform/auth"
	"github.com/servicehub/service-booking/internal/platform/middleware"
	"github.com/servicehub/service-booking/internal/platform/response"
)

// ReviewHandler handles HTTP requests for reading reviews. Reviews are
// written through booking confirmation, never directly.
type ReviewHandler struct {
	service *application.ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(service *application.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// RegisterRoutes registers all review routes on the given router group.
func (h *ReviewHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	reviews := r.Group("/api/v1/reviews")
	reviews.Use(authMW)
	{
		reviews.GET("/booking/:id", h.BookingReviews)
		reviews.GET("/provider/:id", h.ProviderReviews)
		reviews.GET("/provider/:id/rating", h.ProviderRating)
	}
}

// BookingReviews handles GET /api/v1/reviews/booking/:id.
func (h *ReviewHandler) BookingReviews(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	result, err := h.service.GetBookingReviews(c.Request.Context(), bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ProviderReviews handles GET /api/v1/reviews/provider/:id.
func (h *ReviewHandler) ProviderReviews(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid provider ID")
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetProviderReviews(c.Request.Context(), providerID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ProviderRating handles GET /api/v1/reviews/provider/:id/rating.
func (h *ReviewHandler) ProviderRating(c *gin.Context) {
	providerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid provider ID")
		return
	}

	result, err := h.service.GetProviderRating(c.Request.Context(), providerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
