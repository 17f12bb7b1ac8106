package rules

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/money"
)

var quantityFlags = []string{
	"Over-billing on quantity",
	"Under-billing on quantity",
	"Unit conversion errors",
	"Partial shipments not reflected",
}

// CheckQuantity compares total billed quantity against total ordered quantity
// and flags shipments the invoice does not account for. Over- and
// under-billing are mutually exclusive.
func CheckQuantity(po, inv *model.Document) Result {
	r := newResult(quantityFlags)

	poQty := totalQuantity(po.LineItems)
	invQty := totalQuantity(inv.LineItems)

	switch {
	case invQty.GreaterThan(poQty):
		r.set("Over-billing on quantity")
	case invQty.LessThan(poQty):
		r.set("Under-billing on quantity")
	}

	if po.ShipmentRequired() && inv.DeliveryDate == "" {
		r.set("Partial shipments not reflected")
	}

	return r.finish()
}

func totalQuantity(lines []model.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range lines {
		sum = sum.Add(money.FromPtr(li.Quantity))
	}
	return sum
}
