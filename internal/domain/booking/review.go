package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/servicehub/service-booking/internal/platform/apperr"
)

// Review is a client's rating of a completed booking. Reviews are owned by
// the booking and created as part of the confirmation operation.
type Review struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	clientID   uuid.UUID
	providerID uuid.UUID
	rating     int
	comment    string
	createdAt  time.Time
}

// NewReview creates a review for a booking.
func NewReview(bookingID, clientID, providerID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperr.NewValidationError("rating must be between 1 and 5")
	}
	return &Review{
		id:         uuid.New(),
		bookingID:  bookingID,
		clientID:   clientID,
		providerID: providerID,
		rating:     rating,
		comment:    strings.TrimSpace(comment),
		createdAt:  time.Now().UTC(),
	}, nil
}

// ReconstructReview rebuilds a Review from persistence data.
func ReconstructReview(id, bookingID, clientID, providerID uuid.UUID, rating int, comment string, createdAt time.Time) *Review {
	return &Review{
		id:         id,
		bookingID:  bookingID,
		clientID:   clientID,
		providerID: providerID,
		rating:     rating,
		comment:    comment,
		createdAt:  createdAt,
	}
}

// ID returns the review's unique identifier.
func (r *Review) ID() uuid.UUID { return r.id }

// BookingID returns the reviewed booking.
func (r *Review) BookingID() uuid.UUID { return r.bookingID }

// ClientID returns the reviewing client.
func (r *Review) ClientID() uuid.UUID { return r.clientID }

// ProviderID returns the reviewed provider.
func (r *Review) ProviderID() uuid.UUID { return r.providerID }

// Rating returns the 1-5 star rating.
func (r *Review) Rating() int { return r.rating }

// Comment returns the optional review text.
func (r *Review) Comment() string { return r.comment }

// CreatedAt returns the creation timestamp.
func (r *Review) CreatedAt() time.Time { return r.createdAt }
