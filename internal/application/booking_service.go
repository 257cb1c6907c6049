package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	offeringDomain "github.com/servicehub/service-booking/internal/domain/offering"
	"github.com/servicehub/service-booking/internal/events"
	"github.com/servicehub/service-booking/internal/platform/apperr"
	"github.com/servicehub/service-booking/internal/platform/auth"
	"github.com/servicehub/service-booking/internal/platform/kafka"
)

// notifyTimeout bounds background notification dispatch. Failures inside
// the window are logged, never surfaced to the caller.
const notifyTimeout = 5 * time.Second

// ResponseAction is the provider's answer to a pending booking request.
type ResponseAction string

const (
	ActionAccept  ResponseAction = "accept"
	ActionDecline ResponseAction = "decline"
)

// ConfirmAction is the client's answer after the provider reports work done.
type ConfirmAction string

const (
	ConfirmAccept  ConfirmAction = "accept"
	ConfirmDispute ConfirmAction = "dispute"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	ProviderID      uuid.UUID  `json:"provider_id" binding:"required"`
	OfferingID      *uuid.UUID `json:"offering_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	ScheduledAt     time.Time  `json:"scheduled_at" binding:"required"`
	DurationMinutes int        `json:"duration_minutes"`
	AmountCents     int64      `json:"amount_cents"`
	Currency        string     `json:"currency"`
	PaymentMethod   string     `json:"payment_method"`
	Notes           string     `json:"notes"`
}

// TransitionExtra carries optional fields for a generic status transition.
type TransitionExtra struct {
	CancellationReason string `json:"cancellation_reason"`
	DisputeReason      string `json:"dispute_reason"`
	Notes              string `json:"notes"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                    uuid.UUID  `json:"id"`
	Reference             string     `json:"reference"`
	ClientID              uuid.UUID  `json:"client_id"`
	ProviderID            uuid.UUID  `json:"provider_id"`
	OfferingID            *uuid.UUID `json:"offering_id,omitempty"`
	Title                 string     `json:"title"`
	Description           string     `json:"description,omitempty"`
	Location              string     `json:"location,omitempty"`
	ScheduledAt           time.Time  `json:"scheduled_at"`
	DurationMinutes       int        `json:"duration_minutes"`
	AmountCents           int64      `json:"amount_cents"`
	Currency              string     `json:"currency"`
	PaymentMethod         string     `json:"payment_method,omitempty"`
	IsPaid                bool       `json:"is_paid"`
	Status                string     `json:"status"`
	Notes                 string     `json:"notes,omitempty"`
	DisputeReason         string     `json:"dispute_reason,omitempty"`
	CancellationReason    string     `json:"cancellation_reason,omitempty"`
	CancelledBy           *uuid.UUID `json:"cancelled_by,omitempty"`
	CancelledAt           *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
	ClientConfirmDeadline *time.Time `json:"client_confirm_deadline,omitempty"`
	Version               int64      `json:"version"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// CancelResult pairs the cancelled booking with the refund owed.
type CancelResult struct {
	Booking          BookingDTO `json:"booking"`
	RefundPercentage int        `json:"refund_percentage"`
}

// EventPublisher publishes CloudEvents to a topic. Satisfied by
// *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event kafka.CloudEvent) error
}

// BookingService is the application service running the booking state
// machine: it validates transitions against the policy, applies derived
// fields, persists atomically, and fires best-effort side effects.
type BookingService struct {
	repo         bookingDomain.Repository
	offeringRepo offeringDomain.Repository
	notifier     bookingDomain.Notifier
	producer     EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.Repository,
	offeringRepo offeringDomain.Repository,
	notifier bookingDomain.Notifier,
	producer EventPublisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:         repo,
		offeringRepo: offeringRepo,
		notifier:     notifier,
		producer:     producer,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock. Test hook.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// CreateBooking creates a new pending booking request from a client. When
// an offering is referenced, its title, price and duration fill any fields
// the request leaves empty.
func (s *BookingService) CreateBooking(ctx context.Context, clientID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	title := req.Title
	amount := req.AmountCents
	currency := req.Currency
	duration := req.DurationMinutes

	if req.OfferingID != nil {
		off, err := s.offeringRepo.FindByID(ctx, *req.OfferingID)
		if err != nil {
			return nil, err
		}
		if off.ProviderID() != req.ProviderID {
			return nil, apperr.NewValidationError("offering does not belong to the requested provider")
		}
		if off.Status() != offeringDomain.OfferingStatusActive {
			return nil, apperr.NewValidationError("offering is no longer available")
		}
		if title == "" {
			title = off.Title()
		}
		if amount == 0 {
			amount = off.PriceCents()
		}
		if currency == "" {
			currency = off.Currency()
		}
		if duration == 0 {
			duration = off.DurationMinutes()
		}
	}
	if currency == "" {
		currency = "USD"
	}

	b, err := bookingDomain.NewBooking(
		clientID,
		req.ProviderID,
		req.OfferingID,
		title,
		req.Description,
		req.Location,
		req.ScheduledAt,
		duration,
		amount,
		currency,
		req.PaymentMethod,
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRequested, b.ID().String(), events.BookingRequestedEvent{
		BookingID:   b.ID(),
		Reference:   b.Reference(),
		ClientID:    b.ClientID(),
		ProviderID:  b.ProviderID(),
		Title:       b.Title(),
		ScheduledAt: b.ScheduledAt(),
		AmountCents: b.AmountCents(),
		Currency:    b.Currency(),
		OccurredAt:  s.now(),
	})

	result := toBookingDTO(b)
	return &result, nil
}

// Respond is the provider's accept/decline entry point for a pending
// request. Re-invoking on a non-pending booking fails with an
// already-processed error rather than a generic policy rejection.
func (s *BookingService) Respond(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor, action ResponseAction, message string) (*BookingDTO, error) {
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	flags := bookingDomain.ResolveRole(b, actor)
	if !flags.IsProvider {
		return nil, apperr.NewForbiddenError("only the booking's provider can respond to a request")
	}
	if b.Status() != bookingDomain.StatusPending {
		return nil, apperr.NewValidationError("booking request has already been processed")
	}

	var outcome bookingDomain.ResponseOutcome
	switch action {
	case ActionAccept:
		if err := b.Confirm(); err != nil {
			return nil, err
		}
		outcome = bookingDomain.OutcomeAccepted
	case ActionDecline:
		if err := b.Cancel(actor.ID, message); err != nil {
			return nil, err
		}
		outcome = bookingDomain.OutcomeDeclined
	default:
		return nil, apperr.NewValidationError(fmt.Sprintf("unknown response action: %s", action))
	}

	b.IncrementVersion()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingProviderResponse, b.ID().String(), events.BookingProviderResponseEvent{
		BookingID:  b.ID(),
		Reference:  b.Reference(),
		ClientID:   b.ClientID(),
		ProviderID: b.ProviderID(),
		Outcome:    string(outcome),
		Message:    message,
		OccurredAt: s.now(),
	})

	s.dispatchProviderResponse(bookingDomain.ProviderResponseNotification{
		BookingID:    b.ID(),
		Reference:    b.Reference(),
		ClientID:     b.ClientID(),
		ProviderID:   b.ProviderID(),
		BookingTitle: b.Title(),
		Outcome:      outcome,
		Message:      message,
	})

	result := toBookingDTO(b)
	return &result, nil
}

// Transition validates and applies a requested status transition for the
// given actor, computing transition-specific derived fields. A provider
// requesting completed from in_progress lands in
// awaiting_client_confirmation with the confirmation deadline set.
func (s *BookingService) Transition(ctx context.Context, bookingID uuid.UUID, requested bookingDomain.Status, actor bookingDomain.Actor, extra TransitionExtra) (*BookingDTO, error) {
	if !requested.IsValid() {
		return nil, apperr.NewValidationError(fmt.Sprintf("invalid booking status: %s", requested))
	}

	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	flags := bookingDomain.ResolveRole(b, actor)
	if flags.None() {
		return nil, apperr.NewForbiddenError("you are not a party to this booking")
	}

	oldStatus := b.Status()
	if !bookingDomain.MayRequest(oldStatus, requested, flags) {
		return nil, apperr.NewInvalidStateError(string(oldStatus), string(requested))
	}

	switch requested {
	case bookingDomain.StatusConfirmed:
		if !flags.IsProvider && !flags.IsAdmin {
			return nil, apperr.NewForbiddenError("only the booking's provider can confirm it")
		}
		// Reachable from pending (provider accept) and the admin back-edge
		// from cancelled.
		if oldStatus == bookingDomain.StatusCancelled {
			err = b.Reopen(bookingDomain.StatusConfirmed)
		} else {
			err = b.Confirm()
		}
	case bookingDomain.StatusInProgress:
		if !flags.IsProvider && !flags.IsAdmin {
			return nil, apperr.NewForbiddenError("only the booking's provider can start work")
		}
		err = b.Start()
	case bookingDomain.StatusCompleted:
		if oldStatus == bookingDomain.StatusInProgress {
			err = b.MarkComplete(s.now())
		} else {
			err = b.Complete()
		}
	case bookingDomain.StatusCancelled:
		err = b.Cancel(actor.ID, extra.CancellationReason)
	case bookingDomain.StatusDisputed:
		reason := strings.TrimSpace(extra.DisputeReason)
		if reason == "" {
			return nil, apperr.NewValidationError("a dispute reason is required")
		}
		err = b.Dispute(reason)
	case bookingDomain.StatusPending:
		err = b.Reopen(bookingDomain.StatusPending)
	case bookingDomain.StatusRefunded:
		err = b.MarkRefunded()
	default:
		err = apperr.NewInvalidStateError(string(oldStatus), string(requested))
	}
	if err != nil {
		return nil, err
	}

	if extra.Notes != "" {
		b.SetNotes(extra.Notes)
	}

	b.IncrementVersion()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.afterTransition(ctx, b, oldStatus, actor)

	result := toBookingDTO(b)
	return &result, nil
}

// MarkComplete is the provider's convenience operation for reporting work
// done on an in-progress booking.
func (s *BookingService) MarkComplete(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor) (*BookingDTO, error) {
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	flags := bookingDomain.ResolveRole(b, actor)
	if !flags.IsProvider && !flags.IsAdmin {
		return nil, apperr.NewValidationError("only the booking's provider can mark it complete")
	}

	oldStatus := b.Status()
	if err := b.MarkComplete(s.now()); err != nil {
		return nil, err
	}

	b.IncrementVersion()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.afterTransition(ctx, b, oldStatus, actor)

	result := toBookingDTO(b)
	return &result, nil
}

// ConfirmCompletion is the client's answer to a provider-reported
// completion: accept releases payment (optionally attaching a review in
// the same write), dispute freezes it and requires a reason.
func (s *BookingService) ConfirmCompletion(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor, action ConfirmAction, reason string, rating int, comment string) (*BookingDTO, error) {
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	flags := bookingDomain.ResolveRole(b, actor)
	if !flags.IsClient && !flags.IsAdmin {
		return nil, apperr.NewForbiddenError("only the booking's client can confirm completion")
	}

	switch action {
	case ConfirmAccept:
		return s.acceptCompletion(ctx, b, actor, rating, comment, false)
	case ConfirmDispute:
		return s.disputeCompletion(ctx, b, actor, reason, flags)
	default:
		return nil, apperr.NewValidationError(fmt.Sprintf("unknown confirmation action: %s", action))
	}
}

// AutoConfirmExpired finds bookings whose confirmation deadline has passed
// and completes them as the system actor. Returns the number confirmed.
// Concurrent sweeps are safe: a duplicate loses the optimistic lock.
func (s *BookingService) AutoConfirmExpired(ctx context.Context, limit int) (int, error) {
	expired, err := s.repo.FindConfirmationExpired(ctx, s.now(), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired confirmations: %w", err)
	}

	confirmed := 0
	for _, b := range expired {
		if _, err := s.acceptCompletion(ctx, b, bookingDomain.SystemActor, 0, "", true); err != nil {
			s.logger.Warn("auto-confirm failed",
				zap.String("booking_id", b.ID().String()),
				zap.Error(err),
			)
			continue
		}
		confirmed++
	}
	return confirmed, nil
}

func (s *BookingService) acceptCompletion(ctx context.Context, b *bookingDomain.Booking, actor bookingDomain.Actor, rating int, comment string, auto bool) (*BookingDTO, error) {
	oldStatus := b.Status()
	flags := bookingDomain.ResolveRole(b, actor)
	if !bookingDomain.MayRequest(oldStatus, bookingDomain.StatusCompleted, flags) {
		return nil, apperr.NewInvalidStateError(string(oldStatus), string(bookingDomain.StatusCompleted))
	}
	if err := b.Complete(); err != nil {
		return nil, err
	}

	var review *bookingDomain.Review
	if rating > 0 {
		var err error
		review, err = bookingDomain.NewReview(b.ID(), b.ClientID(), b.ProviderID(), rating, comment)
		if err != nil {
			return nil, err
		}
	}

	b.IncrementVersion()
	if err := s.repo.UpdateWithReview(ctx, b, review); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCompleted, b.ID().String(), events.BookingCompletedEvent{
		BookingID:   b.ID(),
		Reference:   b.Reference(),
		ClientID:    b.ClientID(),
		ProviderID:  b.ProviderID(),
		AmountCents: b.AmountCents(),
		Currency:    b.Currency(),
		AutoConfirm: auto,
		OccurredAt:  s.now(),
	})
	s.dispatchStatusChange(b, oldStatus, b.Status())

	result := toBookingDTO(b)
	return &result, nil
}

func (s *BookingService) disputeCompletion(ctx context.Context, b *bookingDomain.Booking, actor bookingDomain.Actor, reason string, flags bookingDomain.RoleFlags) (*BookingDTO, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.NewValidationError("a dispute reason is required")
	}

	oldStatus := b.Status()
	if !bookingDomain.MayRequest(oldStatus, bookingDomain.StatusDisputed, flags) {
		return nil, apperr.NewInvalidStateError(string(oldStatus), string(bookingDomain.StatusDisputed))
	}
	if err := b.Dispute(reason); err != nil {
		return nil, err
	}

	b.IncrementVersion()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingDisputed, b.ID().String(), events.BookingDisputedEvent{
		BookingID:  b.ID(),
		Reference:  b.Reference(),
		ClientID:   b.ClientID(),
		ProviderID: b.ProviderID(),
		Reason:     reason,
		OccurredAt: s.now(),
	})
	s.dispatchStatusChange(b, oldStatus, b.Status())

	result := toBookingDTO(b)
	return &result, nil
}

// Cancel is the client's cancellation path, allowed only before work
// starts. The refund percentage depends on how close the cancellation is
// to the scheduled start.
func (s *BookingService) Cancel(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor, reason string) (*CancelResult, error) {
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	flags := bookingDomain.ResolveRole(b, actor)
	if !flags.IsClient && !flags.IsAdmin {
		return nil, apperr.NewForbiddenError("only the booking's client can cancel through this path")
	}
	if b.Status() != bookingDomain.StatusPending && b.Status() != bookingDomain.StatusConfirmed {
		return nil, apperr.NewValidationError(
			fmt.Sprintf("a %s booking can no longer be cancelled", b.Status()))
	}

	refundPct := bookingDomain.RefundPercentage(s.now(), b.ScheduledAt())

	oldStatus := b.Status()
	wasPaid := b.IsPaid()
	if err := b.Cancel(actor.ID, reason); err != nil {
		return nil, err
	}

	b.IncrementVersion()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCancelled, b.ID().String(), events.BookingCancelledEvent{
		BookingID:        b.ID(),
		Reference:        b.Reference(),
		ClientID:         b.ClientID(),
		ProviderID:       b.ProviderID(),
		CancelledBy:      actor.ID,
		Reason:           reason,
		RefundPercentage: refundPct,
		OccurredAt:       s.now(),
	})
	if wasPaid && refundPct > 0 {
		s.publishEvent(ctx, events.TopicBookingEvents, events.BookingRefundRequested, b.ID().String(), events.BookingRefundRequestedEvent{
			BookingID:   b.ID(),
			Reference:   b.Reference(),
			ClientID:    b.ClientID(),
			AmountCents: b.AmountCents() * int64(refundPct) / 100,
			Currency:    b.Currency(),
			OccurredAt:  s.now(),
		})
	}
	s.dispatchStatusChange(b, oldStatus, b.Status())

	return &CancelResult{Booking: toBookingDTO(b), RefundPercentage: refundPct}, nil
}

// MarkPaid records a payment capture reported by the payment service.
func (s *BookingService) MarkPaid(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if err := b.MarkPaid(); err != nil {
		return nil, err
	}

	b.IncrementVersion()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	result := toBookingDTO(b)
	return &result, nil
}

// --- Queries ---

// GetBooking retrieves a single booking, visible only to its parties and admins.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor) (*BookingDTO, error) {
	b, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if bookingDomain.ResolveRole(b, actor).None() {
		return nil, apperr.NewForbiddenError("you are not a party to this booking")
	}
	result := toBookingDTO(b)
	return &result, nil
}

// GetClientBookings retrieves paginated bookings for a client.
func (s *BookingService) GetClientBookings(ctx context.Context, clientID uuid.UUID, page, limit int) (*apperr.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByClientID(ctx, clientID, page, limit)
	if err != nil {
		return nil, err
	}
	result := apperr.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetProviderBookings retrieves paginated bookings for a provider.
func (s *BookingService) GetProviderBookings(ctx context.Context, providerID uuid.UUID, page, limit int) (*apperr.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByProviderID(ctx, providerID, page, limit)
	if err != nil {
		return nil, err
	}
	result := apperr.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// ListDisputedBookings returns the admin dispute queue.
func (s *BookingService) ListDisputedBookings(ctx context.Context, page, limit int) ([]BookingDTO, int64, error) {
	bookings, total, err := s.repo.ListByStatus(ctx, bookingDomain.StatusDisputed, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list disputed bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	return &BookingStatsDTO{TotalBookings: total, ByStatus: counts}, nil
}

// --- Side effects ---

// afterTransition publishes the status-changed event and dispatches
// notifications. Runs after the persistence write commits; nothing here
// can fail the transition.
func (s *BookingService) afterTransition(ctx context.Context, b *bookingDomain.Booking, oldStatus bookingDomain.Status, actor bookingDomain.Actor) {
	s.publishEvent(ctx, events.TopicBookingEvents, events.BookingStatusChanged, b.ID().String(), events.BookingStatusChangedEvent{
		BookingID:  b.ID(),
		Reference:  b.Reference(),
		ClientID:   b.ClientID(),
		ProviderID: b.ProviderID(),
		OldStatus:  string(oldStatus),
		NewStatus:  string(b.Status()),
		ActorID:    actor.ID,
		OccurredAt: s.now(),
	})

	if b.Status() == bookingDomain.StatusAwaitingClientConfirmation {
		s.publishEvent(ctx, events.TopicBookingEvents, events.BookingAwaitingConfirm, b.ID().String(), events.BookingAwaitingConfirmEvent{
			BookingID:             b.ID(),
			Reference:             b.Reference(),
			ClientID:              b.ClientID(),
			ProviderID:            b.ProviderID(),
			CompletedAt:           *b.CompletedAt(),
			ClientConfirmDeadline: *b.ClientConfirmDeadline(),
			OccurredAt:            s.now(),
		})
	}

	// Completions reached here (admin dispute resolution, client confirm
	// via the generic path) still release escrow.
	if b.Status() == bookingDomain.StatusCompleted && oldStatus != bookingDomain.StatusCompleted {
		s.publishEvent(ctx, events.TopicBookingEvents, events.BookingCompleted, b.ID().String(), events.BookingCompletedEvent{
			BookingID:   b.ID(),
			Reference:   b.Reference(),
			ClientID:    b.ClientID(),
			ProviderID:  b.ProviderID(),
			AmountCents: b.AmountCents(),
			Currency:    b.Currency(),
			AutoConfirm: false,
			OccurredAt:  s.now(),
		})
	}

	s.dispatchStatusChange(b, oldStatus, b.Status())
}

// dispatchStatusChange notifies both parties in the background. Each
// recipient is an independent failure domain; errors are logged and the
// whole dispatch is bounded by notifyTimeout.
func (s *BookingService) dispatchStatusChange(b *bookingDomain.Booking, oldStatus, newStatus bookingDomain.Status) {
	title, body, ok := bookingDomain.StatusChangeNotice(oldStatus, newStatus, b.Reference())
	if !ok {
		s.logger.Warn("no notification copy for transition",
			zap.String("from", string(oldStatus)),
			zap.String("to", string(newStatus)),
		)
		return
	}

	notifications := []bookingDomain.StatusChangeNotification{
		{
			BookingID:   b.ID(),
			Reference:   b.Reference(),
			RecipientID: b.ClientID(),
			Recipient:   auth.RoleClient,
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
			Title:       title,
			Body:        body,
		},
		{
			BookingID:   b.ID(),
			Reference:   b.Reference(),
			RecipientID: b.ProviderID(),
			Recipient:   auth.RoleProvider,
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
			Title:       title,
			Body:        body,
		},
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		var wg sync.WaitGroup
		for _, n := range notifications {
			wg.Add(1)
			go func(n bookingDomain.StatusChangeNotification) {
				defer wg.Done()
				if err := s.notifier.SendStatusChange(ctx, n); err != nil {
					s.logger.Error("failed to send status-change notification",
						zap.String("booking_id", n.BookingID.String()),
						zap.String("recipient", n.RecipientID.String()),
						zap.Error(err),
					)
				}
			}(n)
		}
		wg.Wait()
	}()
}

// dispatchProviderResponse notifies the client of an accept/decline answer
// in the background.
func (s *BookingService) dispatchProviderResponse(n bookingDomain.ProviderResponseNotification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := s.notifier.SendProviderResponse(ctx, n); err != nil {
			s.logger.Error("failed to send provider-response notification",
				zap.String("booking_id", n.BookingID.String()),
				zap.Error(err),
			)
		}
	}()
}

func (s *BookingService) publishEvent(ctx context.Context, topic, eventType, key string, data interface{}) {
	if s.producer == nil {
		return
	}
	cloudEvent, err := kafka.NewCloudEvent("service-booking", eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}
	if err := s.producer.PublishEvent(ctx, topic, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

// --- Helpers ---

func toBookingDTO(b *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
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

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, b := range bookings {
		dtos[i] = toBookingDTO(b)
	}
	return dtos
}
