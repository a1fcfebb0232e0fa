package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torquex/rental-api/internal/booking"
	"github.com/torquex/rental-api/internal/cache"
	"github.com/torquex/rental-api/internal/model"
	"github.com/torquex/rental-api/internal/payment"
	"github.com/torquex/rental-api/internal/queue"
	"github.com/torquex/rental-api/internal/repository"
)

// ----- fakes -----

type fakeVehicles struct {
	m map[uint64]*model.Vehicle
}

func (f *fakeVehicles) GetByID(_ context.Context, id uint64) (*model.Vehicle, error) {
	v, ok := f.m[id]
	if !ok {
		return nil, repository.ErrVehicleNotFound
	}
	cp := *v
	return &cp, nil
}

// fakeBookings mirrors the store's write-time contract: the overlap
// re-check and the insert happen under one lock, standing in for the
// repository's serializable transaction.
type fakeBookings struct {
	mu   sync.Mutex
	seq  uint64
	rows map[uint64]*model.Booking
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{rows: make(map[uint64]*model.Booking)}
}

func (f *fakeBookings) findOverlapLocked(vehicleID uint64, start, end time.Time) *model.Booking {
	for _, b := range f.rows {
		if b.VehicleID != vehicleID {
			continue
		}
		if b.Status != model.BookingPending && b.Status != model.BookingConfirmed {
			continue
		}
		if b.StartDate.Before(end) && b.EndDate.After(start) {
			return b
		}
	}
	return nil
}

func (f *fakeBookings) FindOverlapping(_ context.Context, vehicleID uint64, start, end time.Time) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b := f.findOverlapLocked(vehicleID, start, end); b != nil {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeBookings) Create(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conflict := f.findOverlapLocked(b.VehicleID, b.StartDate, b.EndDate); conflict != nil {
		return &repository.OverlapError{BookingID: conflict.ID}
	}
	f.seq++
	b.ID = f.seq
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	cp := *b
	f.rows[b.ID] = &cp
	return nil
}

func (f *fakeBookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id uint64, from, to string, paymentRef *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if b.Status != from {
		return repository.ErrStaleStatus
	}
	b.Status = to
	if paymentRef != nil {
		ref := *paymentRef
		b.PaymentRef = &ref
	}
	return nil
}

func (f *fakeBookings) SetPaymentRef(_ context.Context, id uint64, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.PaymentRef = &ref
	return nil
}

var _ booking.BookingStore = (*fakeBookings)(nil)

type eventRecorder struct {
	mu     sync.Mutex
	events []cache.Event
}

func (r *eventRecorder) OnEvent(_ context.Context, ev cache.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) types() []cache.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]cache.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

var _ booking.EventSink = (*eventRecorder)(nil)

type publishRecorder struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
}

func (p *publishRecorder) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

var _ booking.Publisher = (*publishRecorder)(nil)

type fakeGateway struct {
	create   func(bookingID uint64, amountCents int64) (payment.Intent, error)
	retrieve func(id string) (payment.Intent, error)
}

func (g *fakeGateway) CreateIntent(_ context.Context, bookingID uint64, amountCents int64) (payment.Intent, error) {
	return g.create(bookingID, amountCents)
}

func (g *fakeGateway) RetrieveIntent(_ context.Context, id string) (payment.Intent, error) {
	return g.retrieve(id)
}

var _ payment.Gateway = (*fakeGateway)(nil)

// ----- fixtures -----

type fixture struct {
	svc      *booking.Service
	bookings *fakeBookings
	events   *eventRecorder
	pub      *publishRecorder
}

func newFixture(gw payment.Gateway) *fixture {
	vehicles := &fakeVehicles{m: map[uint64]*model.Vehicle{
		1: {ID: 1, Name: "Trail Camper", Type: "CAMPER", PricePerDayCents: 5000, Availability: true},
		2: {ID: 2, Name: "Mothballed Van", Type: "VAN", PricePerDayCents: 3000, Availability: false},
	}}
	f := &fixture{
		bookings: newFakeBookings(),
		events:   &eventRecorder{},
		pub:      &publishRecorder{},
	}
	if gw == nil {
		gw = payment.NewSandbox()
	}
	f.svc = booking.NewService(vehicles, f.bookings, gw, f.events, f.pub)
	return f
}

func mustRange(t *testing.T, start, end string) booking.DateRange {
	t.Helper()
	rng, err := booking.ParseRange(start, end, time.Now().UTC())
	require.NoError(t, err)
	return rng
}

func futureDay(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format(booking.DateLayout)
}

// ----- creation -----

func TestCreatePricesPerWholeDay(t *testing.T) {
	f := newFixture(nil)
	rng := mustRange(t, futureDay(5), futureDay(8))

	b, err := f.svc.Create(context.Background(), 7, 1, rng)
	require.NoError(t, err)

	// 3 days at $50/day.
	assert.Equal(t, int64(15000), b.TotalPriceCents)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, []cache.EventType{cache.BookingCreated}, f.events.types())
}

func TestCreateUnknownVehicle(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.Create(context.Background(), 7, 99, mustRange(t, futureDay(5), futureDay(8)))
	assert.ErrorIs(t, err, repository.ErrVehicleNotFound)
	assert.Empty(t, f.events.types())
}

func TestCreateUnavailableVehicle(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.Create(context.Background(), 7, 2, mustRange(t, futureDay(5), futureDay(8)))
	assert.ErrorIs(t, err, booking.ErrVehicleUnavailable)
}

func TestCreateOverlapRejected(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, 7, 1, mustRange(t, futureDay(5), futureDay(8)))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, 8, 1, mustRange(t, futureDay(7), futureDay(10)))
	var overlap *repository.OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, first.ID, overlap.BookingID)
}

func TestCreateBackToBackAllowed(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, 7, 1, mustRange(t, futureDay(5), futureDay(8)))
	require.NoError(t, err)

	// New rental starting the day the previous one ends.
	_, err = f.svc.Create(ctx, 8, 1, mustRange(t, futureDay(8), futureDay(11)))
	assert.NoError(t, err)
}

func TestCreateConcurrentSingleWinner(t *testing.T) {
	f := newFixture(nil)
	rng := mustRange(t, futureDay(5), futureDay(8))

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), user, 1, rng)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			var overlap *repository.OverlapError
			assert.ErrorAs(t, err, &overlap)
		}(uint64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one of %d concurrent requests may win the range", n)
	assert.Len(t, f.bookings.rows, 1)
}

// ----- payment and confirmation -----

func TestConfirmHappyPath(t *testing.T) {
	f := newFixture(nil) // sandbox gateway auto-succeeds
	ctx := context.Background()

	b, err := f.svc.Create(ctx, 7, 1, mustRange(t, futureDay(5), futureDay(8)))
	require.NoError(t, err)

	in, err := f.svc.PaymentIntent(ctx, 7, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.TotalPriceCents, in.AmountCents)

	// Asking again returns the same intent instead of minting one.
	again, err := f.svc.PaymentIntent(ctx, 7, b.ID)
	require.NoError(t, err)
	assert.Equal(t, in.ID, again.ID)

	confirmed, err := f.svc.Confirm(ctx, 7, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.PaymentRef)
	assert.Equal(t, in.ID, *confirmed.PaymentRef)

	assert.Equal(t, []cache.EventType{cache.BookingCreated, cache.BookingConfirmed}, f.events.types())
	require.Len(t, f.pub.events, 1)
	assert.Equal(t, b.ID, f.pub.events[0].BookingID)
	assert.Equal(t, "Trail Camper", f.pub.events[0].VehicleName)
}

func TestConfirmWithoutIntent(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, 7, 1, mustRange(t, futureDay(5), futureDay(8)))
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, 7, b.ID)
	var incomplete *booking.PaymentIncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, "no_intent", incomplete.Status)
}

func TestConfirmPaymentNotSucceeded(t *testing.T) {
	gw := &fakeGateway{
		create: func(bookingID uint64, amountCents int64) (payment.Intent, error) {
			return payment.Intent{ID: "in_1", BookingID: bookingID, AmountCents: amountCents, Status: payment.StatusRequiresAction}, nil
		},
		retrieve: func(id string) (payment.Intent, error) {
			return payment.Intent{ID: id, Status: payment.StatusRequiresAction}, nil
		},
	}
	f := newFixture(gw)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, 7, 1, mustRange(t, futureDay(5), futureDay(8)))
	require.NoError(t, err)
	_, err = f.svc.PaymentIntent(ctx, 7, b.ID)
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, 7, b.ID)
	var incomplete *booking.PaymentIncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, payment.StatusRequiresAction, incomplete.Status)

	// The booking stays PENDING and nothing was published.
	got, err := f.bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, got.Status)
	assert.Empty(t, f.pub.events)
}

func TestPaymentIntentOwnershipEnforced(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, 7, 1, mustRange(t, futureDay(5), futureDay(8)))
	require.NoError(t, err)

	_, err = f.svc.PaymentIntent(ctx, 8, b.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}

// ----- cancellation -----

func (f *fixture) seed(t *testing.T, userID uint64, status string, start time.Time) *model.Booking {
	t.Helper()
	b := &model.Booking{
		UserID:          userID,
		VehicleID:       1,
		StartDate:       start,
		EndDate:         start.AddDate(0, 0, 3),
		Status:          status,
		TotalPriceCents: 15000,
	}
	require.NoError(t, f.bookings.Create(context.Background(), b))
	return b
}

func TestCancelWellBeforeStart(t *testing.T) {
	f := newFixture(nil)
	b := f.seed(t, 7, model.BookingConfirmed, time.Now().UTC().Add(48*time.Hour))

	require.NoError(t, f.svc.Cancel(context.Background(), b.ID, 7, false))

	got, err := f.bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, got.Status)
	assert.Equal(t, []cache.EventType{cache.BookingCancelled}, f.events.types())
}

func TestCancelInsideCutoff(t *testing.T) {
	f := newFixture(nil)
	b := f.seed(t, 7, model.BookingConfirmed, time.Now().UTC().Add(12*time.Hour))

	err := f.svc.Cancel(context.Background(), b.ID, 7, false)
	assert.ErrorIs(t, err, booking.ErrCancellationWindowClosed)

	got, _ := f.bookings.GetByID(context.Background(), b.ID)
	assert.Equal(t, model.BookingConfirmed, got.Status)
}

func TestCancelTerminalStatus(t *testing.T) {
	f := newFixture(nil)
	for _, status := range []string{model.BookingCompleted, model.BookingCancelled, model.BookingActive} {
		b := f.seed(t, 7, status, time.Now().UTC().Add(100*time.Hour))
		err := f.svc.Cancel(context.Background(), b.ID, 7, false)
		assert.ErrorIs(t, err, booking.ErrInvalidTransition, "status %s", status)
	}
}

func TestCancelForeignBooking(t *testing.T) {
	f := newFixture(nil)
	b := f.seed(t, 7, model.BookingConfirmed, time.Now().UTC().Add(48*time.Hour))

	err := f.svc.Cancel(context.Background(), b.ID, 8, false)
	assert.ErrorIs(t, err, repository.ErrForbidden)

	// Admins may act on any user's booking.
	assert.NoError(t, f.svc.Cancel(context.Background(), b.ID, 8, true))
}

// ----- hand-over transitions -----

func TestActivateAndComplete(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	b := f.seed(t, 7, model.BookingConfirmed, time.Now().UTC().Add(48*time.Hour))

	require.NoError(t, f.svc.Activate(ctx, b.ID))
	got, _ := f.bookings.GetByID(ctx, b.ID)
	assert.Equal(t, model.BookingActive, got.Status)

	// Activating twice is illegal.
	assert.ErrorIs(t, f.svc.Activate(ctx, b.ID), booking.ErrInvalidTransition)

	require.NoError(t, f.svc.Complete(ctx, b.ID))
	got, _ = f.bookings.GetByID(ctx, b.ID)
	assert.Equal(t, model.BookingCompleted, got.Status)

	assert.Equal(t, []cache.EventType{cache.BookingActivated, cache.BookingCompleted}, f.events.types())
}

func TestActivatePendingRejected(t *testing.T) {
	f := newFixture(nil)
	b := f.seed(t, 7, model.BookingPending, time.Now().UTC().Add(48*time.Hour))

	assert.ErrorIs(t, f.svc.Activate(context.Background(), b.ID), booking.ErrInvalidTransition)
	assert.ErrorIs(t, f.svc.Complete(context.Background(), b.ID), booking.ErrInvalidTransition)
}
