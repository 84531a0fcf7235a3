package discount

import "github.com/shopspring/decimal"

// ComputeCheckoutDiscount returns the discount a checkout rule grants on subtotal.
// The result is always within [0, subtotal]; a nil or unrecognised rule yields zero.
func ComputeCheckoutDiscount(rule *CheckoutRule, subtotal decimal.Decimal) decimal.Decimal {
	if rule == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch rule.RuleType {
	case RuleTypePercent:
		discount = subtotal.Mul(clampPercent(rule.Percent)).Div(hundred)
	case RuleTypeAmount:
		discount = decimal.Max(decimal.Zero, rule.Amount)
	default:
		return decimal.Zero
	}

	if rule.MinOrder != nil && subtotal.LessThan(*rule.MinOrder) {
		return decimal.Zero
	}
	if rule.MaxDiscountCap != nil {
		discount = decimal.Min(discount, decimal.Max(decimal.Zero, *rule.MaxDiscountCap))
	}

	return decimal.Min(discount, subtotal)
}

// ApplyProductDiscount returns the unit price after a product rule. Only the
// product-level discount is applied here; the checkout discount is computed
// separately on the order subtotal.
func ApplyProductDiscount(price decimal.Decimal, mrp *decimal.Decimal, rule *ProductRule) decimal.Decimal {
	if rule == nil {
		return price
	}

	base := price
	if rule.Base == BaseMRP && mrp != nil && !mrp.IsZero() {
		base = *mrp
	}

	var discount decimal.Decimal
	switch rule.Mode {
	case ModePercent:
		discount = base.Mul(clampPercent(rule.Value)).Div(hundred)
	case ModeAmount:
		discount = decimal.Max(decimal.Zero, rule.Value)
	default:
		return price
	}

	return decimal.Max(decimal.Zero, base.Sub(discount))
}

func clampPercent(p decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(p, decimal.Zero), hundred)
}
