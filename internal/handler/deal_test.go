package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/torquex/rental-api/internal/model"
)

func testDeal() *model.Deal {
	return &model.Deal{
		ID:            1,
		Code:          "SUMMER10",
		DiscountType:  model.DiscountPercent,
		DiscountValue: 10,
		IsActive:      true,
		ValidFrom:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDiscountCents(t *testing.T) {
	percent := testDeal()
	assert.Equal(t, int64(1500), discountCents(percent, 15000))

	fixed := testDeal()
	fixed.DiscountType = model.DiscountFixed
	fixed.DiscountValue = 2000
	assert.Equal(t, int64(2000), discountCents(fixed, 15000))

	// A fixed discount larger than the purchase clamps to the
	// purchase; the final amount never goes negative.
	assert.Equal(t, int64(1000), discountCents(fixed, 1000))
}

func TestIneligibleReasons(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	assert.Empty(t, ineligible(testDeal(), 15000, now))

	inactive := testDeal()
	inactive.IsActive = false
	assert.Equal(t, "deal inactive", ineligible(inactive, 15000, now))

	early := testDeal()
	assert.Equal(t, "deal not started", ineligible(early, 15000, now.AddDate(0, -1, 0)))

	late := testDeal()
	assert.Equal(t, "deal expired", ineligible(late, 15000, now.AddDate(0, 1, 0)))

	// Expiry boundary: valid_until is inclusive, the deal is still
	// redeemable at the instant it expires and gone a second later.
	edge := testDeal()
	assert.Empty(t, ineligible(edge, 15000, edge.ValidUntil))
	assert.Equal(t, "deal expired", ineligible(edge, 15000, edge.ValidUntil.Add(time.Second)))

	exhausted := testDeal()
	limit := uint32(5)
	exhausted.UsageLimit = &limit
	exhausted.CurrentUsage = 5
	assert.Equal(t, "usage limit reached", ineligible(exhausted, 15000, now))

	smallCart := testDeal()
	smallCart.MinPurchaseCents = 20000
	assert.Equal(t, "below minimum purchase", ineligible(smallCart, 15000, now))
}
