package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torquex/rental-api/internal/booking"
)

var clock = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

func day(s string) time.Time {
	d, err := time.ParseInLocation(booking.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParseRangeValid(t *testing.T) {
	rng, err := booking.ParseRange("2026-09-01", "2026-09-04", clock)
	require.NoError(t, err)
	assert.Equal(t, day("2026-09-01"), rng.Start)
	assert.Equal(t, day("2026-09-04"), rng.End)
	assert.Equal(t, 3, rng.Days())
}

func TestParseRangeRejections(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
	}{
		{"bad start format", "01-09-2026", "2026-09-04"},
		{"bad end format", "2026-09-01", "tomorrow"},
		{"start today", "2026-08-30", "2026-09-04"},
		{"start in the past", "2026-08-01", "2026-09-04"},
		{"end equals start", "2026-09-01", "2026-09-01"},
		{"end before start", "2026-09-04", "2026-09-01"},
		{"span over cap", "2026-09-01", "2026-10-02"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := booking.ParseRange(tc.start, tc.end, clock)
			assert.ErrorIs(t, err, booking.ErrInvalidDateRange)
		})
	}
}

func TestParseRangeAcceptsExactCap(t *testing.T) {
	rng, err := booking.ParseRange("2026-09-01", "2026-10-01", clock)
	require.NoError(t, err)
	assert.Equal(t, booking.MaxRentalDays, rng.Days())
}

func TestOverlapsHalfOpen(t *testing.T) {
	base := booking.DateRange{Start: day("2026-09-10"), End: day("2026-09-13")}

	cases := []struct {
		name       string
		other      booking.DateRange
		overlapped bool
	}{
		{"identical", booking.DateRange{Start: day("2026-09-10"), End: day("2026-09-13")}, true},
		{"contained", booking.DateRange{Start: day("2026-09-11"), End: day("2026-09-12")}, true},
		{"straddles start", booking.DateRange{Start: day("2026-09-08"), End: day("2026-09-11")}, true},
		{"straddles end", booking.DateRange{Start: day("2026-09-12"), End: day("2026-09-15")}, true},
		{"back to back before", booking.DateRange{Start: day("2026-09-07"), End: day("2026-09-10")}, false},
		{"back to back after", booking.DateRange{Start: day("2026-09-13"), End: day("2026-09-16")}, false},
		{"disjoint", booking.DateRange{Start: day("2026-09-20"), End: day("2026-09-22")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overlapped, base.Overlaps(tc.other))
			assert.Equal(t, tc.overlapped, tc.other.Overlaps(base), "overlap must be symmetric")
		})
	}
}
