package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	offeringDomain "github.com/servicehub/service-booking/internal/domain/offering"
	"github.com/servicehub/service-booking/internal/platform/apperr"
)

// CreateOfferingRequest is the request DTO for listing a new service.
type CreateOfferingRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	PriceCents      int64  `json:"price_cents" binding:"required"`
	Currency        string `json:"currency"`
	DurationMinutes int    `json:"duration_minutes" binding:"required"`
}

// UpdateOfferingRequest is the request DTO for editing an offering.
type UpdateOfferingRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
}

// OfferingDTO is the API response representation of a service offering.
type OfferingDTO struct {
	ID              uuid.UUID `json:"id"`
	ProviderID      uuid.UUID `json:"provider_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Category        string    `json:"category,omitempty"`
	PriceCents      int64     `json:"price_cents"`
	Currency        string    `json:"currency"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OfferingService implements use cases for the provider service catalog.
type OfferingService struct {
	repo   offeringDomain.Repository
	logger *zap.Logger
}

// NewOfferingService creates a new OfferingService.
func NewOfferingService(repo offeringDomain.Repository, logger *zap.Logger) *OfferingService {
	return &OfferingService{repo: repo, logger: logger}
}

// CreateOffering lists a new service for the given provider.
func (s *OfferingService) CreateOffering(ctx context.Context, providerID uuid.UUID, req CreateOfferingRequest) (*OfferingDTO, error) {
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	off, err := offeringDomain.NewOffering(
		providerID,
		req.Title, req.Description, req.Category,
		req.PriceCents, currency, req.DurationMinutes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, off); err != nil {
		s.logger.Error("failed to create offering", zap.Error(err))
		return nil, fmt.Errorf("failed to create offering: %w", err)
	}

	s.logger.Info("offering created",
		zap.String("offering_id", off.ID().String()),
		zap.String("provider_id", providerID.String()),
	)
	result := toOfferingDTO(off)
	return &result, nil
}

// GetMyOfferings returns all offerings for the given provider.
func (s *OfferingService) GetMyOfferings(ctx context.Context, providerID uuid.UUID) ([]OfferingDTO, error) {
	offerings, err := s.repo.FindByProviderID(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get offerings: %w", err)
	}
	dtos := make([]OfferingDTO, len(offerings))
	for i, o := range offerings {
		dtos[i] = toOfferingDTO(o)
	}
	return dtos, nil
}

// BrowseOfferings returns a paginated listing of active offerings.
func (s *OfferingService) BrowseOfferings(ctx context.Context, page, limit int) (*apperr.PaginatedResult[OfferingDTO], error) {
	offerings, total, err := s.repo.ListActive(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to browse offerings: %w", err)
	}
	dtos := make([]OfferingDTO, len(offerings))
	for i, o := range offerings {
		dtos[i] = toOfferingDTO(o)
	}
	result := apperr.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetOffering returns a single offering by ID.
func (s *OfferingService) GetOffering(ctx context.Context, offeringID uuid.UUID) (*OfferingDTO, error) {
	off, err := s.repo.FindByID(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	result := toOfferingDTO(off)
	return &result, nil
}

// UpdateOffering edits an offering, verifying ownership.
func (s *OfferingService) UpdateOffering(ctx context.Context, providerID, offeringID uuid.UUID, req UpdateOfferingRequest) (*OfferingDTO, error) {
	off, err := s.repo.FindByID(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	if !off.IsOwnedBy(providerID) {
		return nil, apperr.NewForbiddenError("you do not own this offering")
	}

	off.Update(req.Title, req.Description, req.Category, req.PriceCents, req.DurationMinutes)

	if err := s.repo.Update(ctx, off); err != nil {
		s.logger.Error("failed to update offering", zap.Error(err))
		return nil, fmt.Errorf("failed to update offering: %w", err)
	}

	result := toOfferingDTO(off)
	return &result, nil
}

// ArchiveOffering retires an offering from the catalog, verifying ownership.
func (s *OfferingService) ArchiveOffering(ctx context.Context, providerID, offeringID uuid.UUID) error {
	off, err := s.repo.FindByID(ctx, offeringID)
	if err != nil {
		return err
	}
	if !off.IsOwnedBy(providerID) {
		return apperr.NewForbiddenError("you do not own this offering")
	}

	off.Archive()
	if err := s.repo.Update(ctx, off); err != nil {
		s.logger.Error("failed to archive offering", zap.Error(err))
		return fmt.Errorf("failed to archive offering: %w", err)
	}

	s.logger.Info("offering archived", zap.String("offering_id", offeringID.String()))
	return nil
}

func toOfferingDTO(o *offeringDomain.Offering) OfferingDTO {
	return OfferingDTO{
		ID:              o.ID(),
		ProviderID:      o.ProviderID(),
		Title:           o.Title(),
		Description:     o.Description(),
		Category:        o.Category(),
		PriceCents:      o.PriceCents(),
		Currency:        o.Currency(),
		DurationMinutes: o.DurationMinutes(),
		Status:          string(o.Status()),
		CreatedAt:       o.CreatedAt(),
		UpdatedAt:       o.UpdatedAt(),
	}
}
