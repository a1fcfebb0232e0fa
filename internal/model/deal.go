package model

import "time"

// Discount types accepted in deals.discount_type.
const (
	DiscountPercent = "PERCENT"
	DiscountFixed   = "FIXED"
)

// Deal is a promotional discount stored in the `deals` table. The
// plaintext promo code is kept only for admin display; lookups on
// the validation path go through CodeHash exclusively so raw codes
// never appear in query logs.
//
// Fields:
//  ID               – primary key identifier.
//  Code             – upper-cased promo code as entered by the admin.
//  CodeHash         – SHA-256 hex digest of the normalized code (unique).
//  Description      – admin-facing description.
//  DiscountType     – PERCENT or FIXED.
//  DiscountValue    – percent points for PERCENT, cents for FIXED.
//  MinPurchaseCents – minimum booking total required, 0 when unset.
//  ValidFrom        – start of the validity window (inclusive).
//  ValidUntil       – end of the validity window (inclusive).
//  IsActive         – admin kill switch.
//  UsageLimit       – maximum redemptions (null when unlimited).
//  CurrentUsage     – running redemption counter.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Deal struct {
	ID               uint64     // deals.id
	Code             string     // deals.code
	CodeHash         string     // deals.code_hash
	Description      string     // deals.description
	DiscountType     string     // deals.discount_type
	DiscountValue    int64      // deals.discount_value
	MinPurchaseCents int64      // deals.min_purchase_cents
	ValidFrom        time.Time  // deals.valid_from
	ValidUntil       time.Time  // deals.valid_until
	IsActive         bool       // deals.is_active
	UsageLimit       *uint32    // deals.usage_limit (nullable)
	CurrentUsage     uint32     // deals.current_usage
	CreatedAt        time.Time  // deals.created_at
	UpdatedAt        time.Time  // deals.updated_at
}
