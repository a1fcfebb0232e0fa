// Package payment abstracts the external payment provider. The
// booking flow only ever creates an intent for a booking's total and
// later asks whether that intent succeeded; capture mechanics belong
// to the provider.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Intent statuses as reported by the provider. Only
// StatusSucceeded drives a booking confirmation.
const (
	StatusSucceeded      = "succeeded"
	StatusRequiresAction = "requires_action"
	StatusFailed         = "failed"
)

// ErrIntentNotFound is returned when the provider has no record of
// the given intent id.
var ErrIntentNotFound = errors.New("payment intent not found")

// Intent is the provider's view of a payment tied to one booking.
type Intent struct {
	ID          string `json:"id"`
	BookingID   uint64 `json:"booking_id"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
}

// Gateway is the capability injected into the booking service.
type Gateway interface {
	// CreateIntent registers a pending payment for a booking and
	// returns its provider-side identifier.
	CreateIntent(ctx context.Context, bookingID uint64, amountCents int64) (Intent, error)
	// RetrieveIntent reports the current status of an intent.
	RetrieveIntent(ctx context.Context, id string) (Intent, error)
}

// Sandbox is an in-process Gateway for development and tests. Every
// intent it creates succeeds immediately, which keeps the booking
// flow exercisable without provider credentials. Safe for
// concurrent use.
type Sandbox struct {
	mu      sync.Mutex
	seq     uint64
	intents map[string]Intent
}

// NewSandbox returns an empty sandbox gateway.
func NewSandbox() *Sandbox {
	return &Sandbox{intents: make(map[string]Intent)}
}

// CreateIntent mints an already-succeeded intent for the booking.
func (s *Sandbox) CreateIntent(_ context.Context, bookingID uint64, amountCents int64) (Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	in := Intent{
		ID:          fmt.Sprintf("sbx_%d", s.seq),
		BookingID:   bookingID,
		AmountCents: amountCents,
		Status:      StatusSucceeded,
	}
	s.intents[in.ID] = in
	return in, nil
}

// RetrieveIntent looks up a previously created intent.
func (s *Sandbox) RetrieveIntent(_ context.Context, id string) (Intent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.intents[id]
	if !ok {
		return Intent{}, ErrIntentNotFound
	}
	return in, nil
}
