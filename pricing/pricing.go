// Package pricing computes the immutable pricing snapshot attached to
// an order at placement. It is pure: no I/O, no clock, no globals.
// Every rate arrives as an explicit parameter.
package pricing

import "github.com/shopspring/decimal"

// Item is one order line as seen by the engine.
type Item struct {
	UnitPrice    decimal.Decimal
	Quantity     int
	OptionPrices []decimal.Decimal
}

// Params are the platform rates threaded in from configuration.
type Params struct {
	ServiceFeeRate  decimal.Decimal // e.g. 0.08
	SurgeMultiplier decimal.Decimal // e.g. 1.5
	CommissionRate  decimal.Decimal // e.g. 0.20
}

func DefaultParams() Params {
	return Params{
		ServiceFeeRate:  decimal.RequireFromString("0.08"),
		SurgeMultiplier: decimal.RequireFromString("1.5"),
		CommissionRate:  decimal.RequireFromString("0.20"),
	}
}

// Snapshot is the full monetary breakdown of an order. Tax and discount
// are always zero for now but stay in the schema.
type Snapshot struct {
	Subtotal           decimal.Decimal
	DeliveryFee        decimal.Decimal
	ServiceFee         decimal.Decimal
	Tax                decimal.Decimal
	Discount           decimal.Decimal
	Total              decimal.Decimal
	PlatformCommission decimal.Decimal
	RestaurantEarnings decimal.Decimal
	DriverEarnings     decimal.Decimal
	SurgeApplied       bool
}

// ItemSubtotal is unitPrice plus selected option prices, times quantity.
func ItemSubtotal(it Item) decimal.Decimal {
	unit := it.UnitPrice
	for _, p := range it.OptionPrices {
		unit = unit.Add(p)
	}
	return unit.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Compute derives the pricing snapshot. The commission split is exact:
// restaurantEarnings = subtotal - round(subtotal*rate), so commission
// base plus restaurant earnings always reconstructs the subtotal.
func Compute(items []Item, baseDeliveryFee decimal.Decimal, isSurgeTime bool, p Params) Snapshot {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(ItemSubtotal(it))
	}

	deliveryFee := baseDeliveryFee
	if isSurgeTime {
		deliveryFee = baseDeliveryFee.Mul(p.SurgeMultiplier).Round(2)
	}

	serviceFee := subtotal.Mul(p.ServiceFeeRate).Round(2)
	tax := decimal.Zero
	discount := decimal.Zero
	total := subtotal.Add(deliveryFee).Add(serviceFee).Add(tax).Sub(discount)

	commissionBase := subtotal.Mul(p.CommissionRate).Round(2)

	return Snapshot{
		Subtotal:           subtotal,
		DeliveryFee:        deliveryFee,
		ServiceFee:         serviceFee,
		Tax:                tax,
		Discount:           discount,
		Total:              total,
		PlatformCommission: commissionBase.Add(serviceFee),
		RestaurantEarnings: subtotal.Sub(commissionBase),
		DriverEarnings:     deliveryFee,
		SurgeApplied:       isSurgeTime,
	}
}
