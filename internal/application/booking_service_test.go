package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	bookingDomain "github.com/servicehub/service-booking/internal/domain/booking"
	offeringDomain "github.com/servicehub/service-booking/internal/domain/offering"
	"github.com/servicehub/service-booking/internal/events"
	"github.com/servicehub/service-booking/internal/platform/apperr"
	"github.com/servicehub/service-booking/internal/platform/kafka"
)

// fakeBookingRepo is an in-memory repository with the same optimistic-lock
// contract as the Postgres implementation: Update compares the stored
// version against the version the caller read at, and a mismatch is a
// conflict. A mutex makes the check-and-swap atomic so concurrent writers
// genuinely race.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
	reviews  []*bookingDomain.Review
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		b.ID(), b.Reference(), b.ClientID(), b.ProviderID(), b.OfferingID(),
		b.Title(), b.Description(), b.Location(), b.ScheduledAt(),
		b.DurationMinutes(), b.AmountCents(), b.Currency(), b.PaymentMethod(),
		b.IsPaid(), b.Status(), b.Notes(), b.DisputeReason(),
		b.CancellationReason(), b.CancelledBy(), b.CancelledAt(),
		b.CompletedAt(), b.ClientConfirmDeadline(), b.Version(),
		b.CreatedAt(), b.UpdatedAt(),
	)
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, apperr.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(b), nil
}

func (r *fakeBookingRepo) FindByReference(_ context.Context, reference string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.Reference() == reference {
			return cloneBooking(b), nil
		}
	}
	return nil, apperr.NewNotFoundError("Booking", reference)
}

func (r *fakeBookingRepo) FindByClientID(_ context.Context, clientID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if b.ClientID() == clientID {
			out = append(out, cloneBooking(b))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) FindByProviderID(_ context.Context, providerID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if b.ProviderID() == providerID {
			out = append(out, cloneBooking(b))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		out = append(out, cloneBooking(b))
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) ListByStatus(_ context.Context, status bookingDomain.Status, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if b.Status() == status {
			out = append(out, cloneBooking(b))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, b := range r.bookings {
		counts[string(b.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) FindConfirmationExpired(_ context.Context, now time.Time, limit int) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.bookings {
		if len(out) >= limit {
			break
		}
		deadline := b.ClientConfirmDeadline()
		if b.Status() == bookingDomain.StatusAwaitingClientConfirmation && deadline != nil && !deadline.After(now) {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = cloneBooking(b)
	return nil
}

func (r *fakeBookingRepo) Update(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateLocked(b)
}

func (r *fakeBookingRepo) UpdateWithReview(_ context.Context, b *bookingDomain.Booking, review *bookingDomain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.updateLocked(b); err != nil {
		return err
	}
	if review != nil {
		r.reviews = append(r.reviews, review)
	}
	return nil
}

func (r *fakeBookingRepo) updateLocked(b *bookingDomain.Booking) error {
	stored, ok := r.bookings[b.ID()]
	if !ok {
		return apperr.NewNotFoundError("Booking", b.ID().String())
	}
	if stored.Version() != b.Version()-1 {
		return apperr.NewConflictError("booking was modified by another request")
	}
	r.bookings[b.ID()] = cloneBooking(b)
	return nil
}

func (r *fakeBookingRepo) stored(t *testing.T, id uuid.UUID) *bookingDomain.Booking {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	require.True(t, ok, "booking %s not in repo", id)
	return cloneBooking(b)
}

// fakeOfferingRepo serves FindByID from a map; the write paths are unused
// by the booking service.
type fakeOfferingRepo struct {
	offerings map[uuid.UUID]*offeringDomain.Offering
}

func newFakeOfferingRepo() *fakeOfferingRepo {
	return &fakeOfferingRepo{offerings: make(map[uuid.UUID]*offeringDomain.Offering)}
}

func (r *fakeOfferingRepo) FindByID(_ context.Context, id uuid.UUID) (*offeringDomain.Offering, error) {
	o, ok := r.offerings[id]
	if !ok {
		return nil, apperr.NewNotFoundError("Offering", id.String())
	}
	return o, nil
}

func (r *fakeOfferingRepo) FindByProviderID(_ context.Context, _ uuid.UUID) ([]*offeringDomain.Offering, error) {
	return nil, nil
}

func (r *fakeOfferingRepo) ListActive(_ context.Context, _, _ int) ([]*offeringDomain.Offering, int64, error) {
	return nil, 0, nil
}

func (r *fakeOfferingRepo) Save(_ context.Context, o *offeringDomain.Offering) error {
	r.offerings[o.ID()] = o
	return nil
}

func (r *fakeOfferingRepo) Update(_ context.Context, o *offeringDomain.Offering) error {
	r.offerings[o.ID()] = o
	return nil
}

// recordingNotifier counts deliveries and can be told to fail.
type recordingNotifier struct {
	mu             sync.Mutex
	statusChanges  []bookingDomain.StatusChangeNotification
	responses      []bookingDomain.ProviderResponseNotification
	failEverything bool
}

func (n *recordingNotifier) SendStatusChange(_ context.Context, note bookingDomain.StatusChangeNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statusChanges = append(n.statusChanges, note)
	if n.failEverything {
		return errors.New("notification channel down")
	}
	return nil
}

func (n *recordingNotifier) SendProviderResponse(_ context.Context, note bookingDomain.ProviderResponseNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.responses = append(n.responses, note)
	if n.failEverything {
		return errors.New("notification channel down")
	}
	return nil
}

func (n *recordingNotifier) statusChangeCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.statusChanges)
}

func (n *recordingNotifier) responseCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.responses)
}

// recordingPublisher captures published events for inspection.
type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) eventsOfType(eventType string) []kafka.CloudEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []kafka.CloudEvent
	for _, e := range p.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type serviceFixture struct {
	service   *BookingService
	repo      *fakeBookingRepo
	offers    *fakeOfferingRepo
	notifier  *recordingNotifier
	publisher *recordingPublisher
	clientID  uuid.UUID
	provID    uuid.UUID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := newFakeBookingRepo()
	offers := newFakeOfferingRepo()
	notifier := &recordingNotifier{}
	publisher := &recordingPublisher{}
	svc := NewBookingService(repo, offers, notifier, publisher, zap.NewNop())
	return &serviceFixture{
		service:   svc,
		repo:      repo,
		offers:    offers,
		notifier:  notifier,
		publisher: publisher,
		clientID:  uuid.New(),
		provID:    uuid.New(),
	}
}

func (f *serviceFixture) client() bookingDomain.Actor {
	return bookingDomain.Actor{ID: f.clientID, Role: "client"}
}

func (f *serviceFixture) provider() bookingDomain.Actor {
	return bookingDomain.Actor{ID: f.provID, Role: "provider"}
}

func (f *serviceFixture) admin() bookingDomain.Actor {
	return bookingDomain.Actor{ID: uuid.New(), Role: "admin"}
}

func (f *serviceFixture) createBooking(t *testing.T, scheduledAt time.Time) *BookingDTO {
	t.Helper()
	dto, err := f.service.CreateBooking(context.Background(), f.clientID, CreateBookingRequest{
		ProviderID:      f.provID,
		Title:           "Garden maintenance",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 90,
		AmountCents:     12000,
		Currency:        "USD",
	})
	require.NoError(t, err)
	return dto
}

// createInProgress walks a booking to in_progress through the real operations.
func (f *serviceFixture) createInProgress(t *testing.T) *BookingDTO {
	t.Helper()
	ctx := context.Background()
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	_, err := f.service.Respond(ctx, dto.ID, f.provider(), ActionAccept, "")
	require.NoError(t, err)

	started, err := f.service.Transition(ctx, dto.ID, bookingDomain.StatusInProgress, f.provider(), TransitionExtra{})
	require.NoError(t, err)
	return started
}

// createAwaiting walks a booking to awaiting_client_confirmation.
func (f *serviceFixture) createAwaiting(t *testing.T) *BookingDTO {
	t.Helper()
	dto := f.createInProgress(t)
	awaiting, err := f.service.MarkComplete(context.Background(), dto.ID, f.provider())
	require.NoError(t, err)
	return awaiting
}

func TestCreateBooking(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	assert.Equal(t, string(bookingDomain.StatusPending), dto.Status)
	assert.Equal(t, f.clientID, dto.ClientID)
	assert.Equal(t, f.provID, dto.ProviderID)
	assert.NotEmpty(t, dto.Reference)
}

func TestCreateBookingFillsDefaultsFromOffering(t *testing.T) {
	f := newServiceFixture(t)
	off, err := offeringDomain.NewOffering(f.provID, "Standard lawn care", "", "garden", 8000, "EUR", 60)
	require.NoError(t, err)
	require.NoError(t, f.offers.Save(context.Background(), off))

	offID := off.ID()
	dto, err := f.service.CreateBooking(context.Background(), f.clientID, CreateBookingRequest{
		ProviderID:  f.provID,
		OfferingID:  &offID,
		ScheduledAt: time.Now().UTC().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	assert.Equal(t, "Standard lawn care", dto.Title)
	assert.Equal(t, int64(8000), dto.AmountCents)
	assert.Equal(t, "EUR", dto.Currency)
	assert.Equal(t, 60, dto.DurationMinutes)
}

func TestCreateBookingRejectsForeignOffering(t *testing.T) {
	f := newServiceFixture(t)
	off, err := offeringDomain.NewOffering(uuid.New(), "Someone else's service", "", "", 8000, "USD", 60)
	require.NoError(t, err)
	require.NoError(t, f.offers.Save(context.Background(), off))

	offID := off.ID()
	_, err = f.service.CreateBooking(context.Background(), f.clientID, CreateBookingRequest{
		ProviderID:  f.provID,
		OfferingID:  &offID,
		ScheduledAt: time.Now().UTC().Add(48 * time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateBookingRejectsArchivedOffering(t *testing.T) {
	f := newServiceFixture(t)
	off, err := offeringDomain.NewOffering(f.provID, "Retired service", "", "", 8000, "USD", 60)
	require.NoError(t, err)
	off.Archive()
	require.NoError(t, f.offers.Save(context.Background(), off))

	offID := off.ID()
	_, err = f.service.CreateBooking(context.Background(), f.clientID, CreateBookingRequest{
		ProviderID:  f.provID,
		OfferingID:  &offID,
		ScheduledAt: time.Now().UTC().Add(48 * time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRespondAccept(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	result, err := f.service.Respond(context.Background(), dto.ID, f.provider(), ActionAccept, "see you then")
	require.NoError(t, err)

	assert.Equal(t, string(bookingDomain.StatusConfirmed), result.Status)
	require.Eventually(t, func() bool {
		return f.notifier.responseCount() == 1
	}, time.Second, 10*time.Millisecond, "client must be notified of the provider response")
}

func TestRespondDecline(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	result, err := f.service.Respond(context.Background(), dto.ID, f.provider(), ActionDecline, "fully booked that week")
	require.NoError(t, err)

	assert.Equal(t, string(bookingDomain.StatusCancelled), result.Status)
	assert.Equal(t, "fully booked that week", result.CancellationReason)
	require.NotNil(t, result.CancelledBy)
	assert.Equal(t, f.provID, *result.CancelledBy)
}

func TestRespondOnlyProvider(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	_, err := f.service.Respond(context.Background(), dto.ID, f.client(), ActionAccept, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	stranger := bookingDomain.Actor{ID: uuid.New(), Role: "provider"}
	_, err = f.service.Respond(context.Background(), dto.ID, stranger, ActionAccept, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestRespondAlreadyProcessed(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	_, err := f.service.Respond(context.Background(), dto.ID, f.provider(), ActionAccept, "")
	require.NoError(t, err)

	_, err = f.service.Respond(context.Background(), dto.ID, f.provider(), ActionDecline, "changed my mind")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "already been processed")
}

// TestConcurrentRespondRace races an accept against a decline on the same
// pending booking. The optimistic lock must let exactly one through.
func TestConcurrentRespondRace(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	results := make(chan error, 2)
	start := make(chan struct{})

	go func() {
		<-start
		_, err := f.service.Respond(context.Background(), dto.ID, f.provider(), ActionAccept, "")
		results <- err
	}()
	go func() {
		<-start
		_, err := f.service.Respond(context.Background(), dto.ID, f.provider(), ActionDecline, "no capacity")
		results <- err
	}()
	close(start)

	var failures []error
	successes := 0
	for i := 0; i < 2; i++ {
		if err := <-results; err != nil {
			failures = append(failures, err)
		} else {
			successes++
		}
	}

	require.Equal(t, 1, successes, "exactly one response must win")
	require.Len(t, failures, 1)
	loserKind := apperr.KindOf(failures[0])
	assert.Contains(t, []apperr.Kind{apperr.KindConflict, apperr.KindValidation}, loserKind,
		"the loser must see a conflict, or the already-processed error if it read after the winner's commit")

	final := f.repo.stored(t, dto.ID)
	assert.Contains(t, []bookingDomain.Status{bookingDomain.StatusConfirmed, bookingDomain.StatusCancelled}, final.Status())
}

func TestMarkCompleteOpensConfirmationWindow(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createInProgress(t)

	frozen := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	f.service.WithClock(func() time.Time { return frozen })

	result, err := f.service.MarkComplete(context.Background(), dto.ID, f.provider())
	require.NoError(t, err)

	assert.Equal(t, string(bookingDomain.StatusAwaitingClientConfirmation), result.Status)
	require.NotNil(t, result.CompletedAt)
	assert.Equal(t, frozen, *result.CompletedAt)
	require.NotNil(t, result.ClientConfirmDeadline)
	assert.Equal(t, frozen.Add(48*time.Hour), *result.ClientConfirmDeadline)
}

func TestMarkCompleteRequiresProvider(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createInProgress(t)

	_, err := f.service.MarkComplete(context.Background(), dto.ID, f.client())
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestTransitionCompletedFromInProgressParks(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createInProgress(t)

	// The generic transition path must behave the same as MarkComplete.
	result, err := f.service.Transition(context.Background(), dto.ID, bookingDomain.StatusCompleted, f.provider(), TransitionExtra{})
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusAwaitingClientConfirmation), result.Status)
	assert.NotNil(t, result.ClientConfirmDeadline)
}

func TestConfirmCompletionAcceptWithReview(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createInProgress(t)
	_, err := f.service.MarkComplete(context.Background(), dto.ID, f.provider())
	require.NoError(t, err)

	result, err := f.service.ConfirmCompletion(context.Background(), dto.ID, f.client(), ConfirmAccept, "", 4, "solid work")
	require.NoError(t, err)

	assert.Equal(t, string(bookingDomain.StatusCompleted), result.Status)
	assert.Nil(t, result.ClientConfirmDeadline)

	require.Len(t, f.repo.reviews, 1)
	assert.Equal(t, 4, f.repo.reviews[0].Rating())
	assert.Equal(t, dto.ID, f.repo.reviews[0].BookingID())
}

func TestConfirmCompletionAcceptWithoutReview(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createInProgress(t)
	_, err := f.service.MarkComplete(context.Background(), dto.ID, f.provider())
	require.NoError(t, err)

	result, err := f.service.ConfirmCompletion(context.Background(), dto.ID, f.client(), ConfirmAccept, "", 0, "")
	require.NoError(t, err)

	assert.Equal(t, string(bookingDomain.StatusCompleted), result.Status)
	assert.Empty(t, f.repo.reviews)
}

func TestConfirmCompletionDisputeRequiresReason(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createInProgress(t)
	_, err := f.service.MarkComplete(context.Background(), dto.ID, f.provider())
	require.NoError(t, err)

	for _, reason := range []string{"", "   "} {
		_, err := f.service.ConfirmCompletion(context.Background(), dto.ID, f.client(), ConfirmDispute, reason, 0, "")
		require.Error(t, err, "reason %q must be rejected", reason)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}

	result, err := f.service.ConfirmCompletion(context.Background(), dto.ID, f.client(), ConfirmDispute, "half the job missing", 0, "")
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusDisputed), result.Status)
	assert.Equal(t, "half the job missing", result.DisputeReason)
}

func TestTransitionDisputeRequiresReason(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createAwaiting(t)
	ctx := context.Background()

	for _, reason := range []string{"", "   "} {
		_, err := f.service.Transition(ctx, dto.ID, bookingDomain.StatusDisputed, f.client(), TransitionExtra{DisputeReason: reason})
		require.Error(t, err, "reason %q must be rejected", reason)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	}
	assert.Equal(t, bookingDomain.StatusAwaitingClientConfirmation, f.repo.stored(t, dto.ID).Status())

	updated, err := f.service.Transition(ctx, dto.ID, bookingDomain.StatusDisputed, f.client(), TransitionExtra{DisputeReason: "  work unfinished  "})
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusDisputed), updated.Status)
	assert.Equal(t, "work unfinished", f.repo.stored(t, dto.ID).DisputeReason())
}

func TestConfirmCompletionForbiddenForProvider(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createInProgress(t)
	_, err := f.service.MarkComplete(context.Background(), dto.ID, f.provider())
	require.NoError(t, err)

	_, err = f.service.ConfirmCompletion(context.Background(), dto.ID, f.provider(), ConfirmAccept, "", 0, "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestAutoConfirmExpired(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// One booking past its deadline, one still inside the window.
	expired := f.createInProgress(t)
	f.service.WithClock(func() time.Time { return time.Now().UTC().Add(-49 * time.Hour) })
	_, err := f.service.MarkComplete(ctx, expired.ID, f.provider())
	require.NoError(t, err)

	f.service.WithClock(func() time.Time { return time.Now().UTC() })
	fresh := f.createInProgress(t)
	_, err = f.service.MarkComplete(ctx, fresh.ID, f.provider())
	require.NoError(t, err)

	confirmed, err := f.service.AutoConfirmExpired(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, confirmed)

	assert.Equal(t, bookingDomain.StatusCompleted, f.repo.stored(t, expired.ID).Status())
	assert.Equal(t, bookingDomain.StatusAwaitingClientConfirmation, f.repo.stored(t, fresh.ID).Status())
}

func TestCancelRefundTiers(t *testing.T) {
	tests := []struct {
		name        string
		leadTime    time.Duration
		expectedPct int
	}{
		{"more than 24h ahead", 72 * time.Hour, 100},
		{"between 2h and 24h", 3 * time.Hour, 50},
		{"less than 2h", 30 * time.Minute, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t)
			dto := f.createBooking(t, time.Now().UTC().Add(tt.leadTime))

			result, err := f.service.Cancel(context.Background(), dto.ID, f.client(), "plans changed")
			require.NoError(t, err)

			assert.Equal(t, tt.expectedPct, result.RefundPercentage)
			assert.Equal(t, string(bookingDomain.StatusCancelled), result.Booking.Status)
		})
	}
}

func TestCancelRejectedOnceWorkStarted(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createInProgress(t)

	_, err := f.service.Cancel(context.Background(), dto.ID, f.client(), "too late now")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCancelForbiddenForProvider(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	_, err := f.service.Cancel(context.Background(), dto.ID, f.provider(), "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestAdminResolvesDispute(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	dto := f.createInProgress(t)
	_, err := f.service.MarkComplete(ctx, dto.ID, f.provider())
	require.NoError(t, err)
	_, err = f.service.ConfirmCompletion(ctx, dto.ID, f.client(), ConfirmDispute, "damage to property", 0, "")
	require.NoError(t, err)

	t.Run("client cannot resolve", func(t *testing.T) {
		_, err := f.service.Transition(ctx, dto.ID, bookingDomain.StatusRefunded, f.client(), TransitionExtra{})
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})

	t.Run("admin cannot resolve to an unrelated status", func(t *testing.T) {
		_, err := f.service.Transition(ctx, dto.ID, bookingDomain.StatusInProgress, f.admin(), TransitionExtra{})
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidState, apperr.KindOf(err))
	})

	t.Run("admin refunds", func(t *testing.T) {
		result, err := f.service.Transition(ctx, dto.ID, bookingDomain.StatusRefunded, f.admin(), TransitionExtra{})
		require.NoError(t, err)
		assert.Equal(t, string(bookingDomain.StatusRefunded), result.Status)
	})
}

func TestAdminDisputeResolutionReleasesPayment(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	dto := f.createAwaiting(t)
	_, err := f.service.ConfirmCompletion(ctx, dto.ID, f.client(), ConfirmDispute, "provider never showed", 0, "")
	require.NoError(t, err)

	resolved, err := f.service.Transition(ctx, dto.ID, bookingDomain.StatusCompleted, f.admin(), TransitionExtra{})
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusCompleted), resolved.Status)

	completions := f.publisher.eventsOfType(events.BookingCompleted)
	require.Len(t, completions, 1)
	var payload events.BookingCompletedEvent
	require.NoError(t, completions[0].ParseData(&payload))
	assert.Equal(t, dto.ID, payload.BookingID)
	assert.Equal(t, int64(12000), payload.AmountCents)
	assert.False(t, payload.AutoConfirm)
}

func TestTransitionClientConfirmReleasesPayment(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createAwaiting(t)

	_, err := f.service.Transition(context.Background(), dto.ID, bookingDomain.StatusCompleted, f.client(), TransitionExtra{})
	require.NoError(t, err)
	require.Len(t, f.publisher.eventsOfType(events.BookingCompleted), 1)
}

func TestTransitionStrangerForbidden(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	stranger := bookingDomain.Actor{ID: uuid.New(), Role: "client"}
	_, err := f.service.Transition(context.Background(), dto.ID, bookingDomain.StatusCancelled, stranger, TransitionExtra{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestTransitionConfirmAndStartRequireProvider(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	_, err := f.service.Transition(ctx, dto.ID, bookingDomain.StatusConfirmed, f.client(), TransitionExtra{})
	require.Error(t, err)
	assert.Equal(t, bookingDomain.StatusPending, f.repo.stored(t, dto.ID).Status())

	_, err = f.service.Respond(ctx, dto.ID, f.provider(), ActionAccept, "")
	require.NoError(t, err)

	_, err = f.service.Transition(ctx, dto.ID, bookingDomain.StatusInProgress, f.client(), TransitionExtra{})
	require.Error(t, err)
	assert.Equal(t, bookingDomain.StatusConfirmed, f.repo.stored(t, dto.ID).Status())
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	_, err := f.service.Transition(context.Background(), dto.ID, bookingDomain.Status("delivered"), f.provider(), TransitionExtra{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

// TestNotificationFailureDoesNotFailTransition checks the fire-and-forget
// contract: a dead notification channel never bubbles into the operation.
func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	f := newServiceFixture(t)
	f.notifier.failEverything = true
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))

	result, err := f.service.Respond(context.Background(), dto.ID, f.provider(), ActionAccept, "")
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusConfirmed), result.Status)

	started, err := f.service.Transition(context.Background(), dto.ID, bookingDomain.StatusInProgress, f.provider(), TransitionExtra{})
	require.NoError(t, err)
	assert.Equal(t, string(bookingDomain.StatusInProgress), started.Status)

	require.Eventually(t, func() bool {
		return f.notifier.responseCount() == 1 && f.notifier.statusChangeCount() == 2
	}, time.Second, 10*time.Millisecond, "both parties must still be attempted")
}

func TestGetBookingVisibility(t *testing.T) {
	f := newServiceFixture(t)
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))
	ctx := context.Background()

	_, err := f.service.GetBooking(ctx, dto.ID, f.client())
	require.NoError(t, err)
	_, err = f.service.GetBooking(ctx, dto.ID, f.provider())
	require.NoError(t, err)
	_, err = f.service.GetBooking(ctx, dto.ID, f.admin())
	require.NoError(t, err)

	stranger := bookingDomain.Actor{ID: uuid.New(), Role: "client"}
	_, err = f.service.GetBooking(ctx, dto.ID, stranger)
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestGetBookingStats(t *testing.T) {
	f := newServiceFixture(t)
	f.createBooking(t, time.Now().UTC().Add(48*time.Hour))
	dto := f.createBooking(t, time.Now().UTC().Add(48*time.Hour))
	_, err := f.service.Respond(context.Background(), dto.ID, f.provider(), ActionAccept, "")
	require.NoError(t, err)

	stats, err := f.service.GetBookingStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalBookings)
	assert.Equal(t, int64(1), stats.ByStatus[string(bookingDomain.StatusPending)])
	assert.Equal(t, int64(1), stats.ByStatus[string(bookingDomain.StatusConfirmed)])
}
