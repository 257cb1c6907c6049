package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	"github.com/servicehub/service-booking/internal/platform/apperr"
)

// ReviewDTO is the API response representation of a review.
type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	ClientID   uuid.UUID `json:"client_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProviderRatingDTO aggregates a provider's review score.
type ProviderRatingDTO struct {
	ProviderID    uuid.UUID `json:"provider_id"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int64     `json:"review_count"`
}

// ReviewService implements read use cases for booking reviews. Reviews are
// written only through booking confirmation, never directly.
type ReviewService struct {
	repo   bookingDomain.ReviewRepository
	logger *zap.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(repo bookingDomain.ReviewRepository, logger *zap.Logger) *ReviewService {
	return &ReviewService{repo: repo, logger: logger}
}

// GetBookingReviews returns all reviews attached to a booking.
func (s *ReviewService) GetBookingReviews(ctx context.Context, bookingID uuid.UUID) ([]ReviewDTO, error) {
	reviews, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking reviews: %w", err)
	}
	return toReviewDTOs(reviews), nil
}

// GetProviderReviews returns a paginated list of a provider's reviews.
func (s *ReviewService) GetProviderReviews(ctx context.Context, providerID uuid.UUID, page, limit int) (*apperr.PaginatedResult[ReviewDTO], error) {
	reviews, total, err := s.repo.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider reviews: %w", err)
	}
	result := apperr.NewPaginatedResult(toReviewDTOs(reviews), total, page, limit)
	return &result, nil
}

// GetProviderRating returns the provider's average rating.
func (s *ReviewService) GetProviderRating(ctx context.Context, providerID uuid.UUID) (*ProviderRatingDTO, error) {
	avg, count, err := s.repo.AverageRating(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider rating: %w", err)
	}
	return &ProviderRatingDTO{
		ProviderID:    providerID,
		AverageRating: avg,
		ReviewCount:   count,
	}, nil
}

func toReviewDTOs(reviews []*bookingDomain.Review) []ReviewDTO {
	dtos := make([]ReviewDTO, len(reviews))
	for i, r := range reviews {
		dtos[i] = ReviewDTO{
			ID:         r.ID(),
			BookingID:  r.BookingID(),
			ClientID:   r.ClientID(),
			ProviderID: r.ProviderID(),
			Rating:     r.Rating(),
			Comment:    r.Comment(),
			CreatedAt:  r.CreatedAt(),
		}
	}
	return dtos
}
