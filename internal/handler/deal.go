package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/torquex/rental-api/internal/cache"
	"github.com/torquex/rental-api/internal/config"
	"github.com/torquex/rental-api/internal/model"
	"github.com/torquex/rental-api/internal/repository"
	"github.com/torquex/rental-api/internal/utils"
)

// DealHandler serves promotional deals: the public active list and
// promo code validation at checkout.
type DealHandler struct {
	Deals  *repository.DealRepo
	Store  cache.Store
	TTL    config.CacheConfig
	Events *cache.Invalidator
}

func NewDealHandler(d *repository.DealRepo, store cache.Store, ttl config.CacheConfig, events *cache.Invalidator) *DealHandler {
	return &DealHandler{Deals: d, Store: store, TTL: ttl, Events: events}
}

// dealPublic is a deal as shown to customers. The code hash never
// leaves the server.
type dealPublic struct {
	ID               uint64    `json:"id"`
	Code             string    `json:"code"`
	Description      string    `json:"description"`
	DiscountType     string    `json:"discount_type"`
	DiscountValue    int64     `json:"discount_value"`
	MinPurchaseCents int64     `json:"min_purchase_cents"`
	ValidUntil       time.Time `json:"valid_until"`
}

func toPublic(d model.Deal) dealPublic {
	return dealPublic{
		ID:               d.ID,
		Code:             d.Code,
		Description:      d.Description,
		DiscountType:     d.DiscountType,
		DiscountValue:    d.DiscountValue,
		MinPurchaseCents: d.MinPurchaseCents,
		ValidUntil:       d.ValidUntil,
	}
}

// Active returns currently redeemable deals, served through the
// deals:active cache entry.
func (h *DealHandler) Active(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	out, err := cache.ReadThrough(ctx, h.Store, cache.ActiveDealsKey, h.TTL.ActiveDeals, func(ctx context.Context) ([]dealPublic, error) {
		deals, err := h.Deals.ListActive(ctx, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		pub := make([]dealPublic, 0, len(deals))
		for _, d := range deals {
			pub = append(pub, toPublic(d))
		}
		return pub, nil
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list deals failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deals": out})
}

type validateDealReq struct {
	Code        string `json:"code"`
	AmountCents int64  `json:"amount_cents"`
	Redeem      bool   `json:"redeem"` // consume one use on success
}

type validateDealResp struct {
	Valid         bool       `json:"valid"`
	Reason        string     `json:"reason,omitempty"`
	Deal          dealPublic `json:"deal,omitempty"`
	DiscountCents int64      `json:"discount_cents,omitempty"`
	FinalCents    int64      `json:"final_cents,omitempty"`
}

// Validate checks a promo code against a purchase amount and computes
// the discount. With redeem=true a successful validation also
// consumes one use; the guarded increment means an exhausted deal
// fails here even when concurrent redeemers raced past the read.
// An ineligible code is a 200 with valid=false, not an error: the
// client renders the reason inline at checkout.
func (h *DealHandler) Validate(c echo.Context) error {
	var req validateDealReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Code == "" || req.AmountCents <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code and amount_cents required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	d, err := h.Deals.GetByCodeHash(ctx, utils.HashPromoCode(req.Code))
	if err != nil {
		if err == repository.ErrDealNotFound {
			return c.JSON(http.StatusOK, validateDealResp{Valid: false, Reason: "unknown code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validate deal failed"})
	}

	if reason := ineligible(d, req.AmountCents, time.Now().UTC()); reason != "" {
		return c.JSON(http.StatusOK, validateDealResp{Valid: false, Reason: reason})
	}

	discount := discountCents(d, req.AmountCents)

	if req.Redeem {
		if err := h.Deals.IncrementUsage(ctx, d.ID); err != nil {
			if err == repository.ErrStaleStatus {
				return c.JSON(http.StatusOK, validateDealResp{Valid: false, Reason: "usage limit reached"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "redeem deal failed"})
		}
		h.Events.OnEvent(ctx, cache.Event{Type: cache.DealChanged})
	}

	return c.JSON(http.StatusOK, validateDealResp{
		Valid:         true,
		Deal:          toPublic(*d),
		DiscountCents: discount,
		FinalCents:    req.AmountCents - discount,
	})
}

func ineligible(d *model.Deal, amountCents int64, now time.Time) string {
	switch {
	case !d.IsActive:
		return "deal inactive"
	case now.Before(d.ValidFrom):
		return "deal not started"
	case now.After(d.ValidUntil):
		return "deal expired"
	case d.UsageLimit != nil && d.CurrentUsage >= *d.UsageLimit:
		return "usage limit reached"
	case amountCents < d.MinPurchaseCents:
		return "below minimum purchase"
	}
	return ""
}

// discountCents computes the discount, clamped so the final amount
// never goes negative.
func discountCents(d *model.Deal, amountCents int64) int64 {
	var disc int64
	switch d.DiscountType {
	case model.DiscountPercent:
		disc = amountCents * d.DiscountValue / 100
	case model.DiscountFixed:
		disc = d.DiscountValue
	}
	if disc > amountCents {
		disc = amountCents
	}
	if disc < 0 {
		disc = 0
	}
	return disc
}
