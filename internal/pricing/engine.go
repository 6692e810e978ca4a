package pricing

import (
	"strings"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
)

// Rule is a single promo code's effect: a percentage of the subtotal or a
// flat amount in minor units. PercentOff wins when both are set.
type Rule struct {
	PercentOff int
	FlatOff    int64
}

// Table maps lower-cased promo codes to discount rules. Codes are data, not
// code: the set of valid codes is injected, and lookups are case-insensitive.
type Table map[string]Rule

// DefaultTable returns the storefront's built-in promo codes.
func DefaultTable() Table {
	return Table{
		"welcome10": {PercentOff: 10},
		"save10":    {PercentOff: 10},
		"flat50":    {FlatOff: 5000},
	}
}

type Config struct {
	DeliveryFee           int64
	FreeDeliveryThreshold int64
}

func DefaultConfig() Config {
	return Config{
		DeliveryFee:           5000,
		FreeDeliveryThreshold: 100000,
	}
}

// Engine computes prices. It is a pure function of the cart and promo code;
// it holds only configuration and has no side effects.
type Engine struct {
	cfg    Config
	promos Table
}

func NewEngine(cfg Config, promos Table) *Engine {
	return &Engine{cfg: cfg, promos: promos}
}

// Compute prices the cart. Unknown promo codes yield a zero discount and
// never an error; an invalid code must not block checkout. The discount is
// clamped to the subtotal so the total can never go negative.
func (e *Engine) Compute(cart domain.Cart, promoCode string) domain.PricingResult {
	subtotal := cart.Subtotal()

	var discount int64
	if rule, ok := e.promos[strings.ToLower(strings.TrimSpace(promoCode))]; ok {
		if rule.PercentOff > 0 {
			discount = subtotal * int64(rule.PercentOff) / 100
		} else {
			discount = rule.FlatOff
		}
	}
	if discount > subtotal {
		discount = subtotal
	}

	// An empty cart carries no delivery fee; otherwise the fee applies until
	// the subtotal reaches the free-delivery threshold.
	var delivery int64
	if subtotal > 0 && subtotal < e.cfg.FreeDeliveryThreshold {
		delivery = e.cfg.DeliveryFee
	}

	return domain.PricingResult{
		Subtotal: subtotal,
		Discount: discount,
		Delivery: delivery,
		Total:    subtotal - discount + delivery,
	}
}
