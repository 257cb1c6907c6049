package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
)

// ReviewModel is the GORM model for the reviews table.
type ReviewModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	ClientID   uuid.UUID `gorm:"type:uuid;index;not null"`
	ProviderID uuid.UUID `gorm:"type:uuid;index;not null"`
	Rating     int       `gorm:"not null"`
	Comment    string    `gorm:"size:2000"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (ReviewModel) TableName() string {
	return "reviews"
}

// GormReviewRepository is the GORM-based implementation of the review
// repository port.
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository.
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// FindByBookingID retrieves the reviews attached to a booking.
func (r *GormReviewRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*bookingDomain.Review, error) {
	var models []ReviewModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find reviews by booking: %w", err)
	}
	return toDomainReviews(models), nil
}

// FindByProviderID retrieves a provider's reviews with pagination.
func (r *GormReviewRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&ReviewModel{}).Where("provider_id = ?", providerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	var models []ReviewModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find reviews by provider: %w", err)
	}
	return toDomainReviews(models), total, nil
}

// AverageRating returns a provider's mean rating and review count.
func (r *GormReviewRepository) AverageRating(ctx context.Context, providerID uuid.UUID) (float64, int64, error) {
	type ratingAgg struct {
		Average float64
		Count   int64
	}
	var agg ratingAgg
	if err := r.db.WithContext(ctx).Model(&ReviewModel{}).
		Select("COALESCE(AVG(rating), 0) as average, COUNT(*) as count").
		Where("provider_id = ?", providerID).
		Scan(&agg).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	return agg.Average, agg.Count, nil
}

func toReviewModel(rv *bookingDomain.Review) *ReviewModel {
	return &ReviewModel{
		ID:         rv.ID(),
		BookingID:  rv.BookingID(),
		ClientID:   rv.ClientID(),
		ProviderID: rv.ProviderID(),
		Rating:     rv.Rating(),
		Comment:    rv.Comment(),
		CreatedAt:  rv.CreatedAt(),
	}
}

func toDomainReviews(models []ReviewModel) []*bookingDomain.Review {
	reviews := make([]*bookingDomain.Review, len(models))
	for i, m := range models {
		reviews[i] = bookingDomain.ReconstructReview(m.ID, m.BookingID, m.ClientID, m.ProviderID, m.Rating, m.Comment, m.CreatedAt)
	}
	return reviews
}
