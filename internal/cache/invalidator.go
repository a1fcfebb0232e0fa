package cache

import (
	"context"
	"fmt"
	"log"
)

// EventType identifies a mutation of domain state that may have
// left cache entries stale.
type EventType int

const (
	BookingCreated EventType = iota
	BookingConfirmed
	BookingCancelled
	BookingActivated
	BookingCompleted
	VehicleChanged // created, updated or deleted
	DealChanged    // created, updated or deleted
	ReviewCreated
)

// Event carries the subject ids a purge pattern may need. Unused
// fields are simply zero; the mapping below only reads the ones its
// patterns reference.
type Event struct {
	Type      EventType
	UserID    uint64
	VehicleID uint64
}

// Invalidator maps every mutating domain event to the set of cache
// key patterns that must be purged before the next read. Patterns
// are deliberately coarse: over-invalidating costs a cache miss,
// under-invalidating serves stale data, and precise dependency
// tracking across the dashboard's joined aggregates is not worth the
// complexity at this scale.
type Invalidator struct {
	store Store
}

// NewInvalidator returns an Invalidator purging through store.
func NewInvalidator(store Store) *Invalidator {
	return &Invalidator{store: store}
}

// OnEvent purges every pattern mapped to the event. Failures are
// logged and swallowed: the database is authoritative and entries
// expire by TTL, so a missed purge bounds staleness rather than
// corrupting state.
func (inv *Invalidator) OnEvent(ctx context.Context, ev Event) {
	for _, pattern := range inv.patterns(ev) {
		if !inv.store.DeletePattern(ctx, pattern) {
			log.Printf("cache: invalidation of %q skipped (store degraded)", pattern)
		}
	}
}

func (inv *Invalidator) patterns(ev Event) []string {
	switch ev.Type {
	case BookingCreated, BookingCancelled:
		return []string{UserBookingsKey(ev.UserID)}
	case BookingConfirmed, BookingActivated, BookingCompleted:
		return []string{UserBookingsKey(ev.UserID), "admin:dashboard:*"}
	case VehicleChanged:
		return []string{"vehicles:*", "vehicle:detail:*", "admin:dashboard:*"}
	case DealChanged:
		return []string{"deals:*", "admin:dashboard:*"}
	case ReviewCreated:
		return []string{VehicleDetailKey(ev.VehicleID), "admin:dashboard:*"}
	default:
		log.Printf("cache: no invalidation mapping for event type %d", ev.Type)
		return nil
	}
}

// String implements fmt.Stringer for log lines.
func (t EventType) String() string {
	switch t {
	case BookingCreated:
		return "booking.created"
	case BookingConfirmed:
		return "booking.confirmed"
	case BookingCancelled:
		return "booking.cancelled"
	case BookingActivated:
		return "booking.activated"
	case BookingCompleted:
		return "booking.completed"
	case VehicleChanged:
		return "vehicle.changed"
	case DealChanged:
		return "deal.changed"
	case ReviewCreated:
		return "review.created"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}
