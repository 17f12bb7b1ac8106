package rules

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/money"
)

var priceFlags = []string{
	"Unit price variance",
	"Missing discounts",
	"Price tier mismatches",
	"Currency conversion errors",
	"Unauthorized price increases",
}

var (
	priceVariancePct = decimal.NewFromFloat(0.01)
	priceTierPct     = decimal.NewFromFloat(0.20)
	currencyRatioHi  = decimal.NewFromInt(5)
	currencyRatioLo  = decimal.NewFromFloat(0.2)
)

// CheckPrice flags per-line unit-price drift beyond 1% (and, when the invoice
// side is higher, an unauthorized increase), dropped PO discounts, tier-level
// (>=20%) price jumps, and total ratios implausible enough to suggest a
// currency mixup. Line items pair positionally.
func CheckPrice(po, inv *model.Document) Result {
	r := newResult(priceFlags)

	n := min(len(po.LineItems), len(inv.LineItems))
	for i := 0; i < n; i++ {
		poUnit := money.FromPtr(po.LineItems[i].UnitPrice)
		invUnit := money.FromPtr(inv.LineItems[i].UnitPrice)
		if poUnit.IsZero() || invUnit.IsZero() {
			continue
		}
		tol := poUnit.Abs().Mul(priceVariancePct)
		if !money.Equalish(poUnit, invUnit, tol) {
			r.set("Unit price variance")
			if invUnit.GreaterThan(poUnit) {
				r.set("Unauthorized price increases")
			}
		}
	}

	poDiscount := po.Discount
	if poDiscount.IsZero() {
		poDiscount = po.DiscountPercent
	}
	invDiscount := inv.Discount
	if invDiscount.IsZero() {
		invDiscount = inv.DiscountPercent
	}
	if poDiscount.IsPositive() && invDiscount.IsZero() {
		r.set("Missing discounts")
	}

	for i := 0; i < n; i++ {
		poUnit := money.FromPtr(po.LineItems[i].UnitPrice)
		invUnit := money.FromPtr(inv.LineItems[i].UnitPrice)
		if !poUnit.IsPositive() {
			continue
		}
		diff := invUnit.Sub(poUnit).Abs().Div(poUnit)
		if diff.Cmp(priceTierPct) >= 0 {
			r.set("Price tier mismatches")
			break
		}
	}

	if !po.TotalAmount.IsZero() && !inv.TotalAmount.IsZero() {
		ratio := po.TotalAmount.Div(inv.TotalAmount)
		if ratio.GreaterThan(currencyRatioHi) || ratio.LessThan(currencyRatioLo) {
			r.set("Currency conversion errors")
		}
	}

	return r.finish()
}
