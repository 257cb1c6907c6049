package offering

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/servicehub/service-booking/internal/platform/apperr"
)

// OfferingStatus represents the lifecycle state of a catalog entry.
type OfferingStatus string

const (
	OfferingStatusActive   OfferingStatus = "active"
	OfferingStatusArchived OfferingStatus = "archived"
)

// Offering is a service a provider offers on the marketplace. Bookings may
// reference an offering for title and price defaults.
type Offering struct {
	id              uuid.UUID
	providerID      uuid.UUID
	title           string
	description     string
	category        string
	priceCents      int64
	currency        string
	durationMinutes int
	status          OfferingStatus
	version         int64
	createdAt       time.Time
	updatedAt       time.Time
}

// NewOffering creates a new active offering with validated fields.
func NewOffering(
	providerID uuid.UUID,
	title, description, category string,
	priceCents int64,
	currency string,
	durationMinutes int,
) (*Offering, error) {
	if providerID == uuid.Nil {
		return nil, apperr.NewValidationError("provider ID is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, apperr.NewValidationError("title is required")
	}
	if priceCents <= 0 {
		return nil, apperr.NewValidationError("price must be positive")
	}
	if durationMinutes <= 0 {
		return nil, apperr.NewValidationError("duration must be positive")
	}

	now := time.Now().UTC()
	return &Offering{
		id:              uuid.New(),
		providerID:      providerID,
		title:           title,
		description:     description,
		category:        category,
		priceCents:      priceCents,
		currency:        currency,
		durationMinutes: durationMinutes,
		status:          OfferingStatusActive,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// Reconstruct rebuilds an Offering from persistence data (no validation).
func Reconstruct(
	id, providerID uuid.UUID,
	title, description, category string,
	priceCents int64,
	currency string,
	durationMinutes int,
	status OfferingStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Offering {
	return &Offering{
		id:              id,
		providerID:      providerID,
		title:           title,
		description:     description,
		category:        category,
		priceCents:      priceCents,
		currency:        currency,
		durationMinutes: durationMinutes,
		status:          status,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// ID returns the offering's unique identifier.
func (o *Offering) ID() uuid.UUID { return o.id }

// ProviderID returns the owning provider's user ID.
func (o *Offering) ProviderID() uuid.UUID { return o.providerID }

// Title returns the offering title.
func (o *Offering) Title() string { return o.title }

// Description returns the offering description.
func (o *Offering) Description() string { return o.description }

// Category returns the offering category.
func (o *Offering) Category() string { return o.category }

// PriceCents returns the listed price in cents.
func (o *Offering) PriceCents() int64 { return o.priceCents }

// Currency returns the currency code.
func (o *Offering) Currency() string { return o.currency }

// DurationMinutes returns the default duration in minutes.
func (o *Offering) DurationMinutes() int { return o.durationMinutes }

// Status returns the offering status.
func (o *Offering) Status() OfferingStatus { return o.status }

// Version returns the entity version for optimistic locking.
func (o *Offering) Version() int64 { return o.version }

// CreatedAt returns the creation timestamp.
func (o *Offering) CreatedAt() time.Time { return o.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (o *Offering) UpdatedAt() time.Time { return o.updatedAt }

// IsOwnedBy reports whether the offering belongs to the given provider.
func (o *Offering) IsOwnedBy(providerID uuid.UUID) bool {
	return o.providerID == providerID
}

// Update replaces the editable fields.
func (o *Offering) Update(title, description, category string, priceCents int64, durationMinutes int) {
	if strings.TrimSpace(title) != "" {
		o.title = title
	}
	o.description = description
	o.category = category
	if priceCents > 0 {
		o.priceCents = priceCents
	}
	if durationMinutes > 0 {
		o.durationMinutes = durationMinutes
	}
	o.updatedAt = time.Now().UTC()
}

// Archive retires the offering from the catalog without deleting it.
func (o *Offering) Archive() {
	o.status = OfferingStatusArchived
	o.updatedAt = time.Now().UTC()
}
