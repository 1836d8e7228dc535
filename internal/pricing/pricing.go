// Package pricing holds the pure money math of the POS: resolving the
// unit price for a customer tier, applying tagged discounts, and
// assembling sale totals. Nothing here touches storage; callers freeze
// the results into sale line-item snapshots.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"warungpos/backend/internal/domain"
)

var (
	// ErrInvalidPrice marks catalog data corruption: the selected
	// price is missing, negative, or the product has no sellable
	// retail price. Callers must treat it as a server-side fault.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidDiscount marks a discount with a negative value or an
	// unrecognized type.
	ErrInvalidDiscount = errors.New("invalid discount")
)

var oneHundred = decimal.NewFromInt(100)

// ResolvePrice picks the unit price to charge for product given the
// customer classification. Wholesale customers get the wholesale price
// when it is a positive amount; a zero wholesale price falls back to
// retail only when wholesaleFallback is enabled, otherwise it is
// reported as a catalog fault.
func ResolvePrice(product domain.Product, classification string, wholesaleFallback bool) (decimal.Decimal, error) {
	if product.RetailPrice.IsNegative() || product.RetailPrice.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: product %s has no sellable retail price", ErrInvalidPrice, product.SKU)
	}

	if classification != domain.ClassificationWholesale {
		return product.RetailPrice.Round(2), nil
	}

	if product.WholesalePrice.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: product %s has negative wholesale price", ErrInvalidPrice, product.SKU)
	}
	if product.WholesalePrice.IsZero() {
		if !wholesaleFallback {
			return decimal.Zero, fmt.Errorf("%w: product %s has no wholesale price and fallback is disabled", ErrInvalidPrice, product.SKU)
		}
		return product.RetailPrice.Round(2), nil
	}

	return product.WholesalePrice.Round(2), nil
}

// ApplyDiscount computes the discount amount for a base amount.
// Percentage discounts are clamped so the amount never exceeds the
// base; the clamped flag tells callers a warning is in order. Fixed
// discounts take min(value, base). The returned amount is rounded to
// 2 decimal places and is never negative.
func ApplyDiscount(base decimal.Decimal, d domain.Discount) (amount decimal.Decimal, clamped bool, err error) {
	if d.IsZero() {
		return decimal.Zero, false, nil
	}
	if d.Value.IsNegative() {
		return decimal.Zero, false, fmt.Errorf("%w: negative value %s", ErrInvalidDiscount, d.Value)
	}

	switch d.Type {
	case domain.DiscountPercentage:
		amount = base.Mul(d.Value).Div(oneHundred).Round(2)
		if amount.GreaterThan(base) {
			return base.Round(2), true, nil
		}
		return amount, false, nil
	case domain.DiscountFixed:
		value := d.Value.Round(2)
		if value.GreaterThan(base) {
			return base.Round(2), true, nil
		}
		return value, false, nil
	default:
		return decimal.Zero, false, fmt.Errorf("%w: unrecognized type %q", ErrInvalidDiscount, d.Type)
	}
}

// Line is one priced cart entry before aggregation.
type Line struct {
	UnitPrice decimal.Decimal
	Qty       int
	Discount  domain.Discount
}

// LineResult is the computed money breakdown of a single line.
type LineResult struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Clamped        bool
}

// Totals is the order-level aggregation.
type Totals struct {
	Subtotal            decimal.Decimal
	ItemDiscountTotal   decimal.Decimal
	OrderDiscountAmount decimal.Decimal
	GrandTotal          decimal.Decimal
	Clamped             bool
}

// ComputeLine prices one cart line: subtotal = unit price x qty, then
// the item discount against that subtotal.
func ComputeLine(line Line) (LineResult, error) {
	subtotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty))).Round(2)
	discount, clamped, err := ApplyDiscount(subtotal, line.Discount)
	if err != nil {
		return LineResult{}, err
	}
	return LineResult{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          subtotal.Sub(discount),
		Clamped:        clamped,
	}, nil
}

// ComputeTotals aggregates priced lines and applies the order-level
// discount against the post-item-discount amount. The invariant
// grand_total == subtotal - item_discounts - order_discount holds by
// construction.
func ComputeTotals(lines []LineResult, orderDiscount domain.Discount) (Totals, error) {
	subtotal := decimal.Zero
	itemDiscounts := decimal.Zero
	clamped := false
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal)
		itemDiscounts = itemDiscounts.Add(line.DiscountAmount)
		clamped = clamped || line.Clamped
	}

	base := subtotal.Sub(itemDiscounts)
	orderAmount, orderClamped, err := ApplyDiscount(base, orderDiscount)
	if err != nil {
		return Totals{}, err
	}

	return Totals{
		Subtotal:            subtotal,
		ItemDiscountTotal:   itemDiscounts,
		OrderDiscountAmount: orderAmount,
		GrandTotal:          base.Sub(orderAmount),
		Clamped:             clamped || orderClamped,
	}, nil
}
