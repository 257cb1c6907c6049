package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	offeringDomain "github.com/servicehub/service-booking/internal/domain/offering"
	"github.com/servicehub/service-booking/internal/platform/apperr"
)

// OfferingModel is the GORM model for the offerings table.
type OfferingModel struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Title           string    `gorm:"not null;size:200"`
	Description     string    `gorm:"size:2000"`
	Category        string    `gorm:"size:100;index"`
	PriceCents      int64     `gorm:"not null"`
	Currency        string    `gorm:"not null;size:3;default:'USD'"`
	DurationMinutes int       `gorm:"not null"`
	Status          string    `gorm:"not null;size:20;index"`
	Version         int64     `gorm:"not null;default:1"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (OfferingModel) TableName() string {
	return "offerings"
}

// GormOfferingRepository is the GORM-based implementation of the offering
// repository port.
type GormOfferingRepository struct {
	db *gorm.DB
}

// NewGormOfferingRepository creates a new GormOfferingRepository.
func NewGormOfferingRepository(db *gorm.DB) *GormOfferingRepository {
	return &GormOfferingRepository{db: db}
}

// FindByID retrieves an offering by its unique identifier.
func (r *GormOfferingRepository) FindByID(ctx context.Context, id uuid.UUID) (*offeringDomain.Offering, error) {
	var model OfferingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("Offering", id.String())
		}
		return nil, fmt.Errorf("failed to find offering by ID: %w", err)
	}
	return toDomainOffering(&model), nil
}

// FindByProviderID retrieves all offerings owned by a provider.
func (r *GormOfferingRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID) ([]*offeringDomain.Offering, error) {
	var models []OfferingModel
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find offerings by provider: %w", err)
	}

	offerings := make([]*offeringDomain.Offering, len(models))
	for i, m := range models {
		offerings[i] = toDomainOffering(&m)
	}
	return offerings, nil
}

// ListActive retrieves active offerings with pagination.
func (r *GormOfferingRepository) ListActive(ctx context.Context, page, limit int) ([]*offeringDomain.Offering, int64, error) {
	query := r.db.WithContext(ctx).Model(&OfferingModel{}).
		Where("status = ?", string(offeringDomain.OfferingStatusActive))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count offerings: %w", err)
	}

	var models []OfferingModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list offerings: %w", err)
	}

	offerings := make([]*offeringDomain.Offering, len(models))
	for i, m := range models {
		offerings[i] = toDomainOffering(&m)
	}
	return offerings, total, nil
}

// Save persists a new offering.
func (r *GormOfferingRepository) Save(ctx context.Context, o *offeringDomain.Offering) error {
	if err := r.db.WithContext(ctx).Create(toOfferingModel(o)).Error; err != nil {
		return fmt.Errorf("failed to save offering: %w", err)
	}
	return nil
}

// Update persists changes to an existing offering.
func (r *GormOfferingRepository) Update(ctx context.Context, o *offeringDomain.Offering) error {
	model := toOfferingModel(o)
	result := r.db.WithContext(ctx).
		Model(&OfferingModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"title":            model.Title,
			"description":      model.Description,
			"category":         model.Category,
			"price_cents":      model.PriceCents,
			"duration_minutes": model.DurationMinutes,
			"status":           model.Status,
			"version":          gorm.Expr("version + 1"),
			"updated_at":       model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update offering: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewNotFoundError("Offering", model.ID.String())
	}
	return nil
}

func toOfferingModel(o *offeringDomain.Offering) *OfferingModel {
	return &OfferingModel{
		ID:              o.ID(),
		ProviderID:      o.ProviderID(),
		Title:           o.Title(),
		Description:     o.Description(),
		Category:        o.Category(),
		PriceCents:      o.PriceCents(),
		Currency:        o.Currency(),
		DurationMinutes: o.DurationMinutes(),
		Status:          string(o.Status()),
		Version:         o.Version(),
		CreatedAt:       o.CreatedAt(),
		UpdatedAt:       o.UpdatedAt(),
	}
}

func toDomainOffering(m *OfferingModel) *offeringDomain.Offering {
	return offeringDomain.Reconstruct(
		m.ID,
		m.ProviderID,
		m.Title,
		m.Description,
		m.Category,
		m.PriceCents,
		m.Currency,
		m.DurationMinutes,
		offeringDomain.OfferingStatus(m.Status),
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	)
}
