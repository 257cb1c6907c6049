package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/servicehub/service-booking/internal/application"
	"github.com/servicehub/service-booking/internal/platform/auth"
	"github.com/servicehub/service-booking/internal/platform/middleware"
	"github.com/servicehub/service-booking/internal/platform/response"
)

// OfferingHandler handles HTTP requests for the provider service catalog.
type OfferingHandler struct {
	service *application.OfferingService
}

// NewOfferingHandler creates a new OfferingHandler.
func NewOfferingHandler(service *application.OfferingService) *OfferingHandler {
	return &OfferingHandler{service: service}
}

// RegisterRoutes registers all offering routes on the given router group.
func (h *OfferingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	providerRole := middleware.RequireRole(auth.RoleProvider)

	offerings := r.Group("/api/v1/offerings")
	offerings.Use(authMW)
	{
		offerings.POST("", providerRole, h.CreateOffering)
		offerings.GET("", h.BrowseOfferings)
		offerings.GET("/mine", providerRole, h.MyOfferings)
		offerings.GET("/:id", h.GetOffering)
		offerings.PUT("/:id", providerRole, h.UpdateOffering)
		offerings.DELETE("/:id", providerRole, h.ArchiveOffering)
	}
}

// CreateOffering handles POST /api/v1/offerings.
func (h *OfferingHandler) CreateOffering(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateOffering(c.Request.Context(), providerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// BrowseOfferings handles GET /api/v1/offerings (active catalog).
func (h *OfferingHandler) BrowseOfferings(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.BrowseOfferings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// MyOfferings handles GET /api/v1/offerings/mine.
func (h *OfferingHandler) MyOfferings(c *gin.Context) {
	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetMyOfferings(c.Request.Context(), providerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetOffering handles GET /api/v1/offerings/:id.
func (h *OfferingHandler) GetOffering(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offering ID")
		return
	}

	result, err := h.service.GetOffering(c.Request.Context(), offeringID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateOffering handles PUT /api/v1/offerings/:id.
func (h *OfferingHandler) UpdateOffering(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offering ID")
		return
	}

	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UpdateOfferingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateOffering(c.Request.Context(), providerID, offeringID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ArchiveOffering handles DELETE /api/v1/offerings/:id (soft delete).
func (h *OfferingHandler) ArchiveOffering(c *gin.Context) {
	offeringID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid offering ID")
		return
	}

	providerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.service.ArchiveOffering(c.Request.Context(), providerID, offeringID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
