package pipeline

import (
	"math"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
)

const (
	DefaultCommissionPercent = 8.0
	DefaultMinFeeCents       = int64(150000)
)

// Terms are the dealership's consignment terms, read from site settings
type Terms struct {
	CommissionPercent float64 `json:"commission_percent"`
	MinFeeCents       int64   `json:"min_fee_cents"`
}

func DefaultTerms() Terms {
	return Terms{
		CommissionPercent: DefaultCommissionPercent,
		MinFeeCents:       DefaultMinFeeCents,
	}
}

// Payout is what the owner can expect once the car sells
type Payout struct {
	BasePriceCents int64  `json:"base_price_cents"`
	Basis          string `json:"basis"` // sold, agreed or asking
	FeeCents       int64  `json:"fee_cents"`
	PayoutCents    int64  `json:"payout_cents"`
	Final          bool   `json:"final"`
}

// EstimatePayout prices the consignment at the best price known: sold, then agreed, then asking
func EstimatePayout(c *store.Consignment, t Terms) Payout {
	p := Payout{
		BasePriceCents: c.AskingPriceCents,
		Basis:          "asking",
	}
	switch {
	case c.SoldPriceCents != nil:
		p.BasePriceCents = *c.SoldPriceCents
		p.Basis = "sold"
		p.Final = true
	case c.AgreedPriceCents != nil:
		p.BasePriceCents = *c.AgreedPriceCents
		p.Basis = "agreed"
	}

	fee := int64(math.Round(float64(p.BasePriceCents) * t.CommissionPercent / 100))
	if fee < t.MinFeeCents {
		fee = t.MinFeeCents
	}
	p.FeeCents = fee

	p.PayoutCents = p.BasePriceCents - fee
	if p.PayoutCents < 0 {
		p.PayoutCents = 0
	}
	return p
}
