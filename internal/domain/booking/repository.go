package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence contract for booking aggregates.
type Repository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByReference retrieves a booking by its human-readable reference.
	FindByReference(ctx context.Context, reference string) (*Booking, error)

	// FindByClientID retrieves bookings belonging to a client with pagination.
	FindByClientID(ctx context.Context, clientID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindByProviderID retrieves bookings assigned to a provider with pagination.
	FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves all bookings with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Booking, int64, error)

	// ListByStatus retrieves bookings in a given status with pagination (admin).
	ListByStatus(ctx context.Context, status Status, page, limit int) ([]*Booking, int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// FindConfirmationExpired retrieves bookings awaiting client confirmation
	// whose deadline is at or before now, up to limit rows.
	FindConfirmationExpired(ctx context.Context, now time.Time, limit int) ([]*Booking, error)

	// Save persists a new booking.
	Save(ctx context.Context, b *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, b *Booking) error

	// UpdateWithReview persists a booking update and a new review in one
	// transaction. The review may be nil, in which case this behaves like
	// Update.
	UpdateWithReview(ctx context.Context, b *Booking, review *Review) error
}

// ReviewRepository defines the read contract for booking reviews.
type ReviewRepository interface {
	// FindByBookingID retrieves all reviews for a booking.
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Review, error)

	// FindByProviderID retrieves reviews of a provider with pagination.
	FindByProviderID(ctx context.Context, providerID uuid.UUID, page, limit int) ([]*Review, int64, error)

	// AverageRating returns the provider's average rating and review count.
	AverageRating(ctx context.Context, providerID uuid.UUID) (float64, int64, error)
}
