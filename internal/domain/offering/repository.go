package offering

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for offerings.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Offering, error)
	FindByProviderID(ctx context.Context, providerID uuid.UUID) ([]*Offering, error)
	ListActive(ctx context.Context, page, limit int) ([]*Offering, int64, error)
	Save(ctx context.Context, o *Offering) error
	Update(ctx context.Context, o *Offering) error
}
