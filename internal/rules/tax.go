package rules

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/money"
)

var taxFlags = []string{
	"Incorrect tax rates",
	"Calculation errors",
	"Duplicate tax application",
	"Missing tax details",
	"Tax on exempt items",
	"Surcharge miscalculations",
}

var (
	taxRateTol   = decimal.NewFromFloat(0.5)
	surchargeTol = decimal.NewFromFloat(1.0)
)

// CheckTaxCalculation validates the invoice's tax figures: rate drift against
// the PO, internal subtotal+tax-discount arithmetic, tax identity presence,
// tax charged on exempt lines, and surcharges that don't decompose into
// freight+handling. A zero surcharge is "not applicable", never flagged.
func CheckTaxCalculation(po, inv *model.Document) Result {
	r := newResult(taxFlags)

	subtotal := inv.Subtotal
	if !subtotal.IsZero() && !inv.TaxAmount.IsZero() && !po.TaxAmount.IsZero() &&
		!money.Equalish(inv.TaxAmount, po.TaxAmount, taxRateTol) {
		r.set("Incorrect tax rates")
	}

	computed := subtotal.Add(inv.TaxAmount).Sub(inv.Discount)
	if !money.Equalish(computed, inv.TotalAmount, taxRateTol) {
		r.set("Calculation errors")
	}

	if inv.TaxID == "" || inv.TaxID == "NA" {
		r.set("Missing tax details")
	}

	if inv.TaxAmount.IsPositive() {
		for _, li := range inv.LineItems {
			if li.TaxExempt {
				r.set("Tax on exempt items")
				break
			}
		}
	}

	expectedSurcharge := inv.Freight.Add(inv.Handling)
	if !inv.Surcharge.IsZero() && !money.Equalish(expectedSurcharge, inv.Surcharge, surchargeTol) {
		r.set("Surcharge miscalculations")
	}

	return r.finish()
}
