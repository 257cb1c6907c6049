package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/servicehub/service-booking/internal/platform/apperr"
)

// ClientConfirmWindow is how long a client has to confirm or dispute after
// the provider reports the work done, before the booking auto-completes.
const ClientConfirmWindow = 48 * time.Hour

const referenceChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id          uuid.UUID
	reference   string
	clientID    uuid.UUID
	providerID  uuid.UUID
	offeringID  *uuid.UUID
	title       string
	description string
	location    string

	scheduledAt     time.Time
	durationMinutes int

	amountCents   int64
	currency      string
	paymentMethod string
	isPaid        bool

	status                Status
	notes                 string
	disputeReason         string
	cancellationReason    string
	cancelledBy           *uuid.UUID
	cancelledAt           *time.Time
	completedAt           *time.Time
	clientConfirmDeadline *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateReference creates a booking reference in the format "SR-XXXXXX".
func generateReference() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referenceChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking reference: %w", err)
		}
		result[i] = referenceChars[n.Int64()]
	}
	return "SR-" + string(result), nil
}

// NewBooking creates a new Booking aggregate with status=pending.
func NewBooking(
	clientID uuid.UUID,
	providerID uuid.UUID,
	offeringID *uuid.UUID,
	title string,
	description string,
	location string,
	scheduledAt time.Time,
	durationMinutes int,
	amountCents int64,
	currency string,
	paymentMethod string,
	notes string,
) (*Booking, error) {
	if clientID == uuid.Nil {
		return nil, apperr.NewValidationError("client ID is required")
	}
	if providerID == uuid.Nil {
		return nil, apperr.NewValidationError("provider ID is required")
	}
	if clientID == providerID {
		return nil, apperr.NewValidationError("client and provider must be different users")
	}
	if strings.TrimSpace(title) == "" {
		return nil, apperr.NewValidationError("title is required")
	}
	if scheduledAt.IsZero() {
		return nil, apperr.NewValidationError("scheduled time is required")
	}
	if durationMinutes <= 0 {
		return nil, apperr.NewValidationError("duration must be positive")
	}
	if amountCents <= 0 {
		return nil, apperr.NewValidationError("amount must be positive")
	}

	reference, err := generateReference()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:              uuid.New(),
		reference:       reference,
		clientID:        clientID,
		providerID:      providerID,
		offeringID:      offeringID,
		title:           title,
		description:     description,
		location:        location,
		scheduledAt:     scheduledAt,
		durationMinutes: durationMinutes,
		amountCents:     amountCents,
		currency:        currency,
		paymentMethod:   paymentMethod,
		status:          StatusPending,
		notes:           notes,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	reference string,
	clientID uuid.UUID,
	providerID uuid.UUID,
	offeringID *uuid.UUID,
	title string,
	description string,
	location string,
	scheduledAt time.Time,
	durationMinutes int,
	amountCents int64,
	currency string,
	paymentMethod string,
	isPaid bool,
	status Status,
	notes string,
	disputeReason string,
	cancellationReason string,
	cancelledBy *uuid.UUID,
	cancelledAt *time.Time,
	completedAt *time.Time,
	clientConfirmDeadline *time.Time,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Booking {
	return &Booking{
		id:                    id,
		reference:             reference,
		clientID:              clientID,
		providerID:            providerID,
		offeringID:            offeringID,
		title:                 title,
		description:           description,
		location:              location,
		scheduledAt:           scheduledAt,
		durationMinutes:       durationMinutes,
		amountCents:           amountCents,
		currency:              currency,
		paymentMethod:         paymentMethod,
		isPaid:                isPaid,
		status:                status,
		notes:                 notes,
		disputeReason:         disputeReason,
		cancellationReason:    cancellationReason,
		cancelledBy:           cancelledBy,
		cancelledAt:           cancelledAt,
		completedAt:           completedAt,
		clientConfirmDeadline: clientConfirmDeadline,
		version:               version,
		createdAt:             createdAt,
		updatedAt:             updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// Reference returns the human-readable booking reference.
func (b *Booking) Reference() string { return b.reference }

// ClientID returns the client's user ID.
func (b *Booking) ClientID() uuid.UUID { return b.clientID }

// ProviderID returns the provider's user ID.
func (b *Booking) ProviderID() uuid.UUID { return b.providerID }

// OfferingID returns the referenced service offering, or nil if ad hoc.
func (b *Booking) OfferingID() *uuid.UUID { return b.offeringID }

// Title returns the booking title.
func (b *Booking) Title() string { return b.title }

// Description returns the booking description.
func (b *Booking) Description() string { return b.description }

// Location returns the free-text service location.
func (b *Booking) Location() string { return b.location }

// ScheduledAt returns the scheduled start time.
func (b *Booking) ScheduledAt() time.Time { return b.scheduledAt }

// DurationMinutes returns the expected duration in minutes.
func (b *Booking) DurationMinutes() int { return b.durationMinutes }

// AmountCents returns the agreed total amount in cents.
func (b *Booking) AmountCents() int64 { return b.amountCents }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// PaymentMethod returns the selected payment method.
func (b *Booking) PaymentMethod() string { return b.paymentMethod }

// IsPaid returns true once payment has been captured.
func (b *Booking) IsPaid() bool { return b.isPaid }

// Status returns the current booking status.
func (b *Booking) Status() Status { return b.status }

// Notes returns any additional notes for the booking.
func (b *Booking) Notes() string { return b.notes }

// DisputeReason returns the client's complaint, if the booking was disputed.
func (b *Booking) DisputeReason() string { return b.disputeReason }

// CancellationReason returns the cancellation reason.
func (b *Booking) CancellationReason() string { return b.cancellationReason }

// CancelledBy returns the actor who cancelled the booking, or nil.
func (b *Booking) CancelledBy() *uuid.UUID { return b.cancelledBy }

// CancelledAt returns the time the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// CompletedAt returns the time the provider reported the work done.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// ClientConfirmDeadline returns the auto-confirm deadline, set while the
// booking awaits client confirmation.
func (b *Booking) ClientConfirmDeadline() *time.Time { return b.clientConfirmDeadline }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// Confirm transitions the booking from pending to confirmed.
func (b *Booking) Confirm() error {
	if !b.status.CanTransitionTo(StatusConfirmed) {
		return apperr.NewInvalidStateError(string(b.status), string(StatusConfirmed))
	}
	b.status = StatusConfirmed
	b.updatedAt = time.Now().UTC()
	return nil
}

// Start transitions the booking from confirmed to in_progress.
func (b *Booking) Start() error {
	if !b.status.CanTransitionTo(StatusInProgress) {
		return apperr.NewInvalidStateError(string(b.status), string(StatusInProgress))
	}
	b.status = StatusInProgress
	b.updatedAt = time.Now().UTC()
	return nil
}

// MarkComplete records the provider reporting the work done. The booking
// moves to awaiting_client_confirmation, not completed, and the client
// gets ClientConfirmWindow to confirm or dispute before auto-confirm.
func (b *Booking) MarkComplete(now time.Time) error {
	if !b.status.CanTransitionTo(StatusAwaitingClientConfirmation) {
		return apperr.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	deadline := now.Add(ClientConfirmWindow)
	b.status = StatusAwaitingClientConfirmation
	b.completedAt = &now
	b.clientConfirmDeadline = &deadline
	b.updatedAt = now
	return nil
}

// Complete transitions the booking into completed and clears the
// confirmation deadline. Valid from awaiting_client_confirmation (client
// accept or auto-confirm) and from disputed (admin resolution).
func (b *Booking) Complete() error {
	if !b.status.CanTransitionTo(StatusCompleted) {
		return apperr.NewInvalidStateError(string(b.status), string(StatusCompleted))
	}
	b.status = StatusCompleted
	b.clientConfirmDeadline = nil
	b.updatedAt = time.Now().UTC()
	return nil
}

// Dispute transitions the booking into disputed, freezing payment release
// until an admin resolves it. The reason is recorded for the admin queue.
func (b *Booking) Dispute(reason string) error {
	if !b.status.CanTransitionTo(StatusDisputed) {
		return apperr.NewInvalidStateError(string(b.status), string(StatusDisputed))
	}
	b.status = StatusDisputed
	b.disputeReason = reason
	b.clientConfirmDeadline = nil
	b.updatedAt = time.Now().UTC()
	return nil
}

// Cancel transitions the booking into cancelled, recording who cancelled,
// when, and why.
func (b *Booking) Cancel(by uuid.UUID, reason string) error {
	if !b.status.CanTransitionTo(StatusCancelled) {
		return apperr.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	b.status = StatusCancelled
	b.cancellationReason = reason
	b.cancelledBy = &by
	b.cancelledAt = &now
	b.clientConfirmDeadline = nil
	b.updatedAt = now
	return nil
}

// Reopen moves a cancelled booking back to pending or confirmed. Admin
// recovery edge; earlier cancellation metadata is left untouched.
func (b *Booking) Reopen(target Status) error {
	if target != StatusPending && target != StatusConfirmed {
		return apperr.NewInvalidStateError(string(b.status), string(target))
	}
	if !b.status.CanTransitionTo(target) {
		return apperr.NewInvalidStateError(string(b.status), string(target))
	}
	b.status = target
	b.updatedAt = time.Now().UTC()
	return nil
}

// MarkRefunded transitions the booking into refunded.
func (b *Booking) MarkRefunded() error {
	if !b.status.CanTransitionTo(StatusRefunded) {
		return apperr.NewInvalidStateError(string(b.status), string(StatusRefunded))
	}
	b.status = StatusRefunded
	b.updatedAt = time.Now().UTC()
	return nil
}

// MarkPaid records a successful payment capture. Capture is only accepted
// while the booking is confirmed; it is never a side effect of a status
// transition.
func (b *Booking) MarkPaid() error {
	if b.status != StatusConfirmed {
		return apperr.NewValidationError(
			fmt.Sprintf("payment capture requires a confirmed booking, got %s", b.status))
	}
	if b.isPaid {
		return apperr.NewValidationError("booking is already paid")
	}
	b.isPaid = true
	b.updatedAt = time.Now().UTC()
	return nil
}

// SetNotes replaces the booking notes.
func (b *Booking) SetNotes(notes string) {
	b.notes = notes
	b.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
