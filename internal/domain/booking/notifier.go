package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/servicehub/service-booking/internal/platform/auth"
)

// ResponseOutcome is the provider's answer to a new booking request.
type ResponseOutcome string

const (
	OutcomeAccepted ResponseOutcome = "accepted"
	OutcomeDeclined ResponseOutcome = "declined"
)

// StatusChangeNotification carries everything needed to notify one party
// about a status transition.
type StatusChangeNotification struct {
	BookingID   uuid.UUID
	Reference   string
	RecipientID uuid.UUID
	Recipient   auth.Role
	OldStatus   Status
	NewStatus   Status
	Title       string
	Body        string
}

// ProviderResponseNotification carries the provider's accept/decline answer
// to the client, including the optional human message.
type ProviderResponseNotification struct {
	BookingID    uuid.UUID
	Reference    string
	ClientID     uuid.UUID
	ProviderID   uuid.UUID
	BookingTitle string
	Outcome      ResponseOutcome
	Message      string
}

// Notifier is the fire-and-forget port for status-change and provider
// response notifications. Implementations must be safe for concurrent use;
// failures are the caller's to log and never to propagate.
type Notifier interface {
	SendStatusChange(ctx context.Context, n StatusChangeNotification) error
	SendProviderResponse(ctx context.Context, n ProviderResponseNotification) error
}
