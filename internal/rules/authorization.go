package rules

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/reconcile-cli/internal/model"
)

var authorizationFlags = []string{
	"Line items not in PO",
	"Missing change orders",
	"Services not delivered",
}

var changeOrderPct = decimal.NewFromFloat(1.05)

// CheckAuthorization flags invoice lines whose description never appears on
// the PO, totals exceeding 105% of the PO total without a change order, and
// shipment-required invoices with no delivery date.
func CheckAuthorization(po, inv *model.Document) Result {
	r := newResult(authorizationFlags)

	poDescs := make(map[string]bool, len(po.LineItems))
	for _, li := range po.LineItems {
		poDescs[li.Description] = true
	}
	for _, li := range inv.LineItems {
		if !poDescs[li.Description] {
			r.set("Line items not in PO")
		}
	}

	if inv.TotalAmount.GreaterThan(po.TotalAmount.Mul(changeOrderPct)) {
		r.set("Missing change orders")
	}

	if inv.DeliveryDate == "" && inv.ShipmentRequired() {
		r.set("Services not delivered")
	}

	return r.finish()
}
