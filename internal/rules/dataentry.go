package rules

import (
	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/money"
)

var dataEntryFlags = []string{
	"Transposition errors",
	"Decimal point errors",
	"Date format inconsistency",
	"Currency confusion",
	"Typing errors",
}

// CheckDataEntry flags a decimal point error when any line's stated total is
// not exactly quantity*unit_price. Exact equality on the decimal
// representation, no tolerance: a shifted decimal point is precisely the kind
// of error a tolerance would hide.
func CheckDataEntry(inv *model.Document) Result {
	r := newResult(dataEntryFlags)

	for _, li := range inv.LineItems {
		qty := money.FromPtr(li.Quantity)
		unit := money.FromPtr(li.UnitPrice)
		total := money.FromPtr(li.Total)
		if !qty.Mul(unit).Equal(total) {
			r.set("Decimal point errors")
		}
	}

	return r.finish()
}
