package rules

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/money"
)

var calculationFlags = []string{
	"Line total calculation errors",
	"Subtotal mismatches",
	"Invoice total errors",
	"Discount calculation errors",
	"Rounding error accumulation",
}

var calculationTol = decimal.NewFromFloat(1.0)

// CheckCalculation validates the invoice's document-level arithmetic: the
// stated subtotal against the line-derived subtotal, and the stated total
// against subtotal+tax-discount. Both within a 1.0 tolerance.
func CheckCalculation(inv *model.Document) Result {
	r := newResult(calculationFlags)

	lineSubtotal := money.SubtotalFromLines(inv.LineItems)
	if !money.Equalish(lineSubtotal, inv.Subtotal, calculationTol) {
		r.set("Subtotal mismatches")
	}

	computed := inv.Subtotal.Add(inv.TaxAmount).Sub(inv.Discount)
	if !money.Equalish(computed, inv.TotalAmount, calculationTol) {
		r.set("Invoice total errors")
	}

	return r.finish()
}
