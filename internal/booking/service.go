package booking

import (
	"context"
	"log"
	"time"

	"github.com/torquex/rental-api/internal/cache"
	"github.com/torquex/rental-api/internal/model"
	"github.com/torquex/rental-api/internal/payment"
	"github.com/torquex/rental-api/internal/queue"
	"github.com/torquex/rental-api/internal/repository"
)

// BookingStore is the persistence contract the service needs.
// Create must be atomic with respect to the overlap invariant: it
// re-checks for conflicting PENDING/CONFIRMED rows and inserts in
// one transaction, returning *repository.OverlapError when a
// conflict exists. UpdateStatus is guarded by the expected source
// status and returns repository.ErrStaleStatus when another request
// got there first.
type BookingStore interface {
	OverlapFinder
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	UpdateStatus(ctx context.Context, id uint64, from, to string, paymentRef *string) error
	SetPaymentRef(ctx context.Context, id uint64, ref string) error
}

// EventSink receives domain events for cache invalidation. Satisfied
// by *cache.Invalidator.
type EventSink interface {
	OnEvent(ctx context.Context, ev cache.Event)
}

// Publisher pushes booking.confirmed events to the broker. May be
// nil when no broker is configured; publishing is best-effort either
// way.
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// Service owns the booking lifecycle: creation behind the
// availability check, payment-driven confirmation, cancellation and
// the admin transitions. Every successful mutation notifies the
// event sink before returning; the cache is best-effort and never
// rolls a transition back.
type Service struct {
	vehicles  VehicleStore
	bookings  BookingStore
	checker   *Checker
	gateway   payment.Gateway
	events    EventSink
	publisher Publisher
}

// NewService wires the booking service. publisher may be nil.
func NewService(vehicles VehicleStore, bookings BookingStore, gateway payment.Gateway, events EventSink, publisher Publisher) *Service {
	return &Service{
		vehicles:  vehicles,
		bookings:  bookings,
		checker:   NewChecker(vehicles, bookings),
		gateway:   gateway,
		events:    events,
		publisher: publisher,
	}
}

// Create books vehicleID for rng on behalf of userID. rng must come
// from ParseRange. The price is fixed at creation time:
// days × the vehicle's current daily price. The store's Create
// enforces the no-overlap invariant at write time, so a concurrent
// request that slipped past the checker still fails here with the
// same overlap error.
func (s *Service) Create(ctx context.Context, userID, vehicleID uint64, rng DateRange) (*model.Booking, error) {
	v, err := s.checker.Check(ctx, vehicleID, rng)
	if err != nil {
		return nil, err
	}
	b := &model.Booking{
		UserID:          userID,
		VehicleID:       vehicleID,
		StartDate:       rng.Start,
		EndDate:         rng.End,
		Status:          model.BookingPending,
		TotalPriceCents: v.PricePerDayCents * int64(rng.Days()),
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}
	s.events.OnEvent(ctx, cache.Event{Type: cache.BookingCreated, UserID: userID})
	return b, nil
}

// PaymentIntent creates or retrieves the payment intent for a
// PENDING booking owned by userID, persisting the intent id on the
// booking the first time. A stale intent id (provider no longer
// knows it) is replaced with a fresh one.
func (s *Service) PaymentIntent(ctx context.Context, userID, bookingID uint64) (payment.Intent, error) {
	b, err := s.getOwned(ctx, bookingID, userID, false)
	if err != nil {
		return payment.Intent{}, err
	}
	if b.Status != model.BookingPending {
		return payment.Intent{}, ErrInvalidTransition
	}
	if b.PaymentRef != nil {
		in, err := s.gateway.RetrieveIntent(ctx, *b.PaymentRef)
		if err == nil {
			return in, nil
		}
		log.Printf("booking: intent %s lost at provider, recreating: %v", *b.PaymentRef, err)
	}
	in, err := s.gateway.CreateIntent(ctx, b.ID, b.TotalPriceCents)
	if err != nil {
		return payment.Intent{}, err
	}
	if err := s.bookings.SetPaymentRef(ctx, b.ID, in.ID); err != nil {
		return payment.Intent{}, err
	}
	return in, nil
}

// Confirm transitions a PENDING booking to CONFIRMED after the
// provider reports its intent succeeded. The status and the payment
// reference are persisted in one guarded update. Any non-succeeded
// intent status comes back as *PaymentIncompleteError and leaves the
// booking untouched.
func (s *Service) Confirm(ctx context.Context, userID, bookingID uint64) (*model.Booking, error) {
	b, err := s.getOwned(ctx, bookingID, userID, false)
	if err != nil {
		return nil, err
	}
	if b.Status != model.BookingPending {
		return nil, ErrInvalidTransition
	}
	if b.PaymentRef == nil {
		return nil, &PaymentIncompleteError{Status: "no_intent"}
	}
	in, err := s.gateway.RetrieveIntent(ctx, *b.PaymentRef)
	if err != nil {
		return nil, err
	}
	if in.Status != payment.StatusSucceeded {
		return nil, &PaymentIncompleteError{Status: in.Status}
	}
	if err := s.bookings.UpdateStatus(ctx, b.ID, model.BookingPending, model.BookingConfirmed, &in.ID); err != nil {
		if err == repository.ErrStaleStatus {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	b.Status = model.BookingConfirmed
	b.PaymentRef = &in.ID

	s.events.OnEvent(ctx, cache.Event{Type: cache.BookingConfirmed, UserID: b.UserID})
	s.publishConfirmed(ctx, b)
	return b, nil
}

// Cancel transitions a PENDING or CONFIRMED booking to CANCELLED.
// Only the owning user (or an admin) may cancel, and only while the
// start date is more than CancellationWindow away.
func (s *Service) Cancel(ctx context.Context, bookingID, userID uint64, admin bool) error {
	b, err := s.getOwned(ctx, bookingID, userID, admin)
	if err != nil {
		return err
	}
	if !Cancellable(b.Status) {
		return ErrInvalidTransition
	}
	if !WithinCancellationWindow(b.StartDate, time.Now().UTC()) {
		return ErrCancellationWindowClosed
	}
	if err := s.bookings.UpdateStatus(ctx, b.ID, b.Status, model.BookingCancelled, nil); err != nil {
		if err == repository.ErrStaleStatus {
			return ErrInvalidTransition
		}
		return err
	}
	s.events.OnEvent(ctx, cache.Event{Type: cache.BookingCancelled, UserID: b.UserID})
	return nil
}

// Activate marks a CONFIRMED booking as in progress. Admin/ops only;
// the handler enforces the role.
func (s *Service) Activate(ctx context.Context, bookingID uint64) error {
	return s.adminTransition(ctx, bookingID, model.BookingConfirmed, model.BookingActive, cache.BookingActivated)
}

// Complete marks an ACTIVE booking as finished, making it eligible
// for review. Admin/ops only.
func (s *Service) Complete(ctx context.Context, bookingID uint64) error {
	return s.adminTransition(ctx, bookingID, model.BookingActive, model.BookingCompleted, cache.BookingCompleted)
}

func (s *Service) adminTransition(ctx context.Context, bookingID uint64, from, to string, evType cache.EventType) error {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.Status != from || !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	if err := s.bookings.UpdateStatus(ctx, b.ID, from, to, nil); err != nil {
		if err == repository.ErrStaleStatus {
			return ErrInvalidTransition
		}
		return err
	}
	s.events.OnEvent(ctx, cache.Event{Type: evType, UserID: b.UserID})
	return nil
}

// getOwned loads a booking and enforces ownership unless admin.
func (s *Service) getOwned(ctx context.Context, bookingID, userID uint64, admin bool) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !admin && b.UserID != userID {
		return nil, repository.ErrForbidden
	}
	return b, nil
}

// publishConfirmed pushes the broker event for a confirmation.
// Failures are logged only; the state store already committed.
func (s *Service) publishConfirmed(ctx context.Context, b *model.Booking) {
	if s.publisher == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:       b.ID,
		UserID:          b.UserID,
		VehicleID:       b.VehicleID,
		StartDate:       b.StartDate.Format(DateLayout),
		EndDate:         b.EndDate.Format(DateLayout),
		TotalPriceCents: b.TotalPriceCents,
		ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if b.PaymentRef != nil {
		ev.PaymentRef = *b.PaymentRef
	}
	if v, err := s.vehicles.GetByID(ctx, b.VehicleID); err == nil {
		ev.VehicleName = v.Name
	}
	if err := s.publisher.PublishBookingConfirmed(ctx, ev); err != nil {
		log.Printf("booking: publish booking.confirmed for %d failed: %v", b.ID, err)
	}
}
