package booking

import (
	"github.com/google/uuid"

	"github.com/servicehub/service-booking/internal/platform/auth"
)

// Actor is the authenticated principal invoking a booking operation.
type Actor struct {
	ID   uuid.UUID
	Role auth.Role
}

// SystemActor is the principal attributed to automated transitions such as
// the confirmation-deadline sweep.
var SystemActor = Actor{ID: uuid.Nil, Role: auth.RoleAdmin}

// RoleFlags describes the actor's relationship to a specific booking.
type RoleFlags struct {
	IsClient   bool
	IsProvider bool
	IsAdmin    bool
}

// None reports that the actor is neither party to the booking nor an admin.
func (f RoleFlags) None() bool {
	return !f.IsClient && !f.IsProvider && !f.IsAdmin
}

// ResolveRole determines the actor's role relative to the booking.
// Ownership is required for the client and provider flags; admins bypass
// ownership checks entirely.
func ResolveRole(b *Booking, actor Actor) RoleFlags {
	return RoleFlags{
		IsClient:   actor.Role == auth.RoleClient && actor.ID == b.ClientID(),
		IsProvider: actor.Role == auth.RoleProvider && actor.ID == b.ProviderID(),
		IsAdmin:    actor.Role == auth.RoleAdmin,
	}
}
