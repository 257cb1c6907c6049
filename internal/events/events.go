package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics.
const (
	TopicBookingEvents      = "booking.events"
	TopicNotificationEvents = "notification.events"
	TopicPaymentEvents      = "payment.events"
)

// Event types on booking.events.
const (
	BookingRequested        = "booking.requested"
	BookingProviderResponse = "booking.provider_response"
	BookingStatusChanged    = "booking.status_changed"
	BookingAwaitingConfirm  = "booking.awaiting_confirmation"
	BookingCompleted        = "booking.completed"
	BookingDisputed         = "booking.disputed"
	BookingCancelled        = "booking.cancelled"
	BookingRefundRequested  = "booking.refund_requested"
)

// Event types on notification.events.
const (
	NotifyStatusChange     = "notify.status_change"
	NotifyProviderResponse = "notify.provider_response"
)

// Event types consumed from payment.events.
const (
	PaymentCaptured = "payment.captured"
	PaymentRefunded = "payment.refunded"
)

// BookingRequestedEvent announces a newly created booking request.
type BookingRequestedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	Reference   string    `json:"reference"`
	ClientID    uuid.UUID `json:"client_id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	Title       string    `json:"title"`
	ScheduledAt time.Time `json:"scheduled_at"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingStatusChangedEvent records a single status transition.
type BookingStatusChangedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reference  string    `json:"reference"`
	ClientID   uuid.UUID `json:"client_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	OldStatus  string    `json:"old_status"`
	NewStatus  string    `json:"new_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingProviderResponseEvent records a provider accepting or declining a
// new request, with the optional human message.
type BookingProviderResponseEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reference  string    `json:"reference"`
	ClientID   uuid.UUID `json:"client_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Outcome    string    `json:"outcome"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingAwaitingConfirmEvent is emitted when a provider reports work done
// and the confirmation window opens.
type BookingAwaitingConfirmEvent struct {
	BookingID             uuid.UUID `json:"booking_id"`
	Reference             string    `json:"reference"`
	ClientID              uuid.UUID `json:"client_id"`
	ProviderID            uuid.UUID `json:"provider_id"`
	CompletedAt           time.Time `json:"completed_at"`
	ClientConfirmDeadline time.Time `json:"client_confirm_deadline"`
	OccurredAt            time.Time `json:"occurred_at"`
}

// BookingCompletedEvent is emitted on completion and signals the payment
// service to release the escrowed amount to the provider.
type BookingCompletedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	Reference   string    `json:"reference"`
	ClientID    uuid.UUID `json:"client_id"`
	ProviderID  uuid.UUID `json:"provider_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	AutoConfirm bool      `json:"auto_confirm"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// BookingDisputedEvent routes a dispute to the admin review queue.
type BookingDisputedEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	Reference  string    `json:"reference"`
	ClientID   uuid.UUID `json:"client_id"`
	ProviderID uuid.UUID `json:"provider_id"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// BookingCancelledEvent records a cancellation and the refund owed.
type BookingCancelledEvent struct {
	BookingID         uuid.UUID `json:"booking_id"`
	Reference         string    `json:"reference"`
	ClientID          uuid.UUID `json:"client_id"`
	ProviderID        uuid.UUID `json:"provider_id"`
	CancelledBy       uuid.UUID `json:"cancelled_by"`
	Reason            string    `json:"reason,omitempty"`
	RefundPercentage  int       `json:"refund_percentage"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// BookingRefundRequestedEvent asks the payment service to refund the client.
type BookingRefundRequestedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	Reference   string    `json:"reference"`
	ClientID    uuid.UUID `json:"client_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// StatusChangeNotificationEvent is the notification command published for
// the notification service to deliver (email + in-app).
type StatusChangeNotificationEvent struct {
	BookingID     uuid.UUID `json:"booking_id"`
	Reference     string    `json:"reference"`
	RecipientID   uuid.UUID `json:"recipient_id"`
	RecipientRole string    `json:"recipient_role"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ProviderResponseNotificationEvent is the notification command for a
// provider's accept/decline answer, with distinct copy from generic status
// changes.
type ProviderResponseNotificationEvent struct {
	BookingID    uuid.UUID `json:"booking_id"`
	Reference    string    `json:"reference"`
	ClientID     uuid.UUID `json:"client_id"`
	ProviderID   uuid.UUID `json:"provider_id"`
	BookingTitle string    `json:"booking_title"`
	Outcome      string    `json:"outcome"`
	Message      string    `json:"message,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// PaymentCapturedEvent is consumed from payment.events when the client's
// payment has been captured into escrow.
type PaymentCapturedEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// PaymentRefundedEvent is consumed from payment.events when a refund has
// been executed by the payment service.
type PaymentRefundedEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}
