package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	"github.com/servicehub/service-booking/internal/platform/apperr"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Reference             string     `gorm:"uniqueIndex;not null;size:20"`
	ClientID              uuid.UUID  `gorm:"type:uuid;index;not null"`
	ProviderID            uuid.UUID  `gorm:"type:uuid;index;not null"`
	OfferingID            *uuid.UUID `gorm:"type:uuid;index"`
	Title                 string     `gorm:"not null;size:200"`
	Description           string     `gorm:"size:2000"`
	Location              string     `gorm:"size:500"`
	ScheduledAt           time.Time  `gorm:"not null;index"`
	DurationMinutes       int        `gorm:"not null"`
	AmountCents           int64      `gorm:"not null"`
	Currency              string     `gorm:"not null;size:3;default:'USD'"`
	PaymentMethod         string     `gorm:"size:30"`
	IsPaid                bool       `gorm:"not null;default:false"`
	Status                string     `gorm:"not null;size:30;index"`
	Notes                 string     `gorm:"size:1000"`
	DisputeReason         string     `gorm:"size:1000"`
	CancellationReason    string     `gorm:"size:500"`
	CancelledBy           *uuid.UUID `gorm:"type:uuid"`
	CancelledAt           *time.Time `gorm:""`
	CompletedAt           *time.Time `gorm:""`
	ClientConfirmDeadline *time.Time `gorm:"index"`
	Version               int64      `gorm:"not null;default:1"`
	CreatedAt             time.Time  `gorm:"not null"`
	UpdatedAt             time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of the booking
// repository port.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByReference retrieves a booking by its human-readable reference.
func (r *GormBookingRepository) FindByReference(ctx context.Context, reference string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("Booking", reference)
		}
		return nil, fmt.Errorf("failed to find booking by reference: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByClientID retrieves bookings for a client with pagination.
func (r *GormBookingRepository) FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "client_id = ?", []interface{}{clientID}, page, limit)
}

// FindByProviderID retrieves bookings for a provider with pagination.
func (r *GormBookingRepository) FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "provider_id = ?", []interface{}{providerID}, page, limit)
}

// ListAll retrieves all bookings with pagination (admin).
func (r *GormBookingRepository) ListAll(ctx context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "", nil, page, limit)
}

// ListByStatus retrieves bookings in a given status with pagination (admin).
func (r *GormBookingRepository) ListByStatus(ctx context.Context, status bookingDomain.Status, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.findPage(ctx, "status = ?", []interface{}{string(status)}, page, limit)
}

func (r *GormBookingRepository) findPage(ctx context.Context, cond string, args []interface{}, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	query := r.db.WithContext(ctx).Model(&BookingModel{})
	if cond != "" {
		query = query.Where(cond, args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := query.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		b, err := toDomainBooking(&m)
		if err != nil {
			return nil, 0, err
		}
		bookings[i] = b
	}
	return bookings, total, nil
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// FindConfirmationExpired retrieves bookings awaiting client confirmation
// whose deadline has passed.
func (r *GormBookingRepository) FindConfirmationExpired(ctx context.Context, now time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND client_confirm_deadline <= ?", string(bookingDomain.StatusAwaitingClientConfirmation), now).
		Order("client_confirm_deadline ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find expired confirmations: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i, m := range models {
		b, err := toDomainBooking(&m)
		if err != nil {
			return nil, err
		}
		bookings[i] = b
	}
	return bookings, nil
}

// Save persists a new booking.
func (r *GormBookingRepository) Save(ctx context.Context, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
func (r *GormBookingRepository) Update(ctx context.Context, b *bookingDomain.Booking) error {
	return r.update(ctx, r.db, b)
}

// UpdateWithReview persists a booking update and a new review in a single
// transaction so the confirmation and its review commit atomically.
func (r *GormBookingRepository) UpdateWithReview(ctx context.Context, b *bookingDomain.Booking, review *bookingDomain.Review) error {
	if review == nil {
		return r.update(ctx, r.db, b)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.update(ctx, tx, b); err != nil {
			return err
		}
		if err := tx.Create(toReviewModel(review)).Error; err != nil {
			return fmt.Errorf("failed to save review: %w", err)
		}
		return nil
	})
}

// update writes the full row guarded by the version the booking was read
// at. RowsAffected == 0 means another transaction won the race.
func (r *GormBookingRepository) update(ctx context.Context, db *gorm.DB, b *bookingDomain.Booking) error {
	model := toBookingModel(b)
	expectedVersion := b.Version() - 1

	result := db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":                  model.Status,
			"is_paid":                 model.IsPaid,
			"notes":                   model.Notes,
			"dispute_reason":          model.DisputeReason,
			"cancellation_reason":     model.CancellationReason,
			"cancelled_by":            model.CancelledBy,
			"cancelled_at":            model.CancelledAt,
			"completed_at":            model.CompletedAt,
			"client_confirm_deadline": model.ClientConfirmDeadline,
			"version":                 model.Version,
			"updated_at":              model.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NewConflictError("booking was modified by another request")
	}
	return nil
}

// --- Conversion Helpers ---

func toBookingModel(b *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:                    b.ID(),
		Reference:             b.Reference(),
		ClientID:              b.ClientID(),
		ProviderID:            b.ProviderID(),
		OfferingID:            b.OfferingID(),
		Title:                 b.Title(),
		Description:           b.Description(),
		Location:              b.Location(),
		ScheduledAt:           b.ScheduledAt(),
		DurationMinutes:       b.DurationMinutes(),
		AmountCents:           b.AmountCents(),
		Currency:              b.Currency(),
		PaymentMethod:         b.PaymentMethod(),
		IsPaid:                b.IsPaid(),
		Status:                string(b.Status()),
		Notes:                 b.Notes(),
		DisputeReason:         b.DisputeReason(),
		CancellationReason:    b.CancellationReason(),
		CancelledBy:           b.CancelledBy(),
		CancelledAt:           b.CancelledAt(),
		CompletedAt:           b.CompletedAt(),
		ClientConfirmDeadline: b.ClientConfirmDeadline(),
		Version:               b.Version(),
		CreatedAt:             b.CreatedAt(),
		UpdatedAt:             b.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.Reference,
		m.ClientID,
		m.ProviderID,
		m.OfferingID,
		m.Title,
		m.Description,
		m.Location,
		m.ScheduledAt,
		m.DurationMinutes,
		m.AmountCents,
		m.Currency,
		m.PaymentMethod,
		m.IsPaid,
		status,
		m.Notes,
		m.DisputeReason,
		m.CancellationReason,
		m.CancelledBy,
		m.CancelledAt,
		m.CompletedAt,
		m.ClientConfirmDeadline,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
