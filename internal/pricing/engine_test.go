package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
)

func testEngine() *Engine {
	return NewEngine(DefaultConfig(), DefaultTable())
}

func cartWith(price int64, qty int) domain.Cart {
	return domain.Cart{Lines: []domain.CartLine{
		{ModelID: "m1", Size: "9", Name: "Nike Mercurial Vapor", UnitPrice: price, Quantity: qty},
	}}
}

func TestCompute_NoPromo(t *testing.T) {
	// one line, price 100.00 x2, fee 50.00, threshold 1000.00
	res := testEngine().Compute(cartWith(10000, 2), "")

	assert.Equal(t, int64(20000), res.Subtotal)
	assert.Equal(t, int64(0), res.Discount)
	assert.Equal(t, int64(5000), res.Delivery)
	assert.Equal(t, int64(25000), res.Total)
}

func TestCompute_PercentPromo(t *testing.T) {
	res := testEngine().Compute(cartWith(10000, 2), "WELCOME10")

	assert.Equal(t, int64(20000), res.Subtotal)
	assert.Equal(t, int64(2000), res.Discount)
	assert.Equal(t, int64(5000), res.Delivery)
	assert.Equal(t, int64(23000), res.Total)
}

func TestCompute_PromoCaseInsensitive(t *testing.T) {
	eng := testEngine()
	upper := eng.Compute(cartWith(10000, 2), "Save10")
	lower := eng.Compute(cartWith(10000, 2), "save10")

	assert.Equal(t, upper, lower)
	assert.Equal(t, int64(2000), upper.Discount)
}

func TestCompute_UnknownPromoIsInert(t *testing.T) {
	res := testEngine().Compute(cartWith(10000, 2), "BOGUS99")

	assert.Equal(t, int64(0), res.Discount)
	assert.Equal(t, int64(25000), res.Total)
}

func TestCompute_FlatDiscountClampedToSubtotal(t *testing.T) {
	// subtotal 40.00 with a flat 50.00 promo: discount clamps to 40.00 so the
	// total is delivery-fee-only, never negative.
	res := testEngine().Compute(cartWith(4000, 1), "FLAT50")

	assert.Equal(t, int64(4000), res.Subtotal)
	assert.Equal(t, int64(4000), res.Discount)
	assert.Equal(t, int64(5000), res.Total)
}

func TestCompute_DeliveryThresholdBoundary(t *testing.T) {
	eng := testEngine()

	atThreshold := eng.Compute(cartWith(100000, 1), "")
	assert.Equal(t, int64(0), atThreshold.Delivery)

	oneUnitBelow := eng.Compute(cartWith(99999, 1), "")
	assert.Equal(t, int64(5000), oneUnitBelow.Delivery)
}

func TestCompute_EmptyCart(t *testing.T) {
	res := testEngine().Compute(domain.Cart{}, "WELCOME10")

	assert.Equal(t, domain.PricingResult{}, res)
}

func TestCompute_MultipleLines(t *testing.T) {
	cart := domain.Cart{Lines: []domain.CartLine{
		{ModelID: "m1", Size: "9", UnitPrice: 12999, Quantity: 1},
		{ModelID: "m2", Size: "9.5", UnitPrice: 15999, Quantity: 2},
	}}

	res := testEngine().Compute(cart, "")
	assert.Equal(t, int64(12999+2*15999), res.Subtotal)
	assert.Equal(t, int64(0), res.Delivery) // over the free-delivery threshold
}
