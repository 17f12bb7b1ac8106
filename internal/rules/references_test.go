package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/reconcile-cli/internal/model"
)

func TestCheckReferences(t *testing.T) {
	t.Run("disagreeing reference fields", func(t *testing.T) {
		po := &model.Document{
			PONumber:    "PO-1001",
			CostCenter:  "CC-100",
			ServiceFrom: "01/01/2024",
			BillTo:      "12 Dock St",
			VendorName:  "Acme Industrial",
		}
		inv := &model.Document{
			PONumber:    "PO-1002",
			CostCenter:  "CC-200",
			ServiceFrom: "02/01/2024",
			BillTo:      "99 Harbor Rd",
			VendorName:  "Acme Industries",
		}
		r := CheckReferences(po, inv)
		assert.Equal(t, 1, r.Flags["Wrong PO number"])
		assert.Equal(t, 1, r.Flags["Incorrect cost center"])
		assert.Equal(t, 1, r.Flags["Wrong service dates"])
		assert.Equal(t, 1, r.Flags["Wrong bill-to address"])
		assert.Equal(t, 1, r.Flags["Vendor mismatches"])
	})

	t.Run("empty sides never compare", func(t *testing.T) {
		po := &model.Document{PONumber: "PO-1001", VendorName: "Acme Industrial"}
		inv := &model.Document{CostCenter: "CC-200"}
		r := CheckReferences(po, inv)
		assert.Zero(t, r.Score)
	})

	t.Run("invoice dated before the po conflicts", func(t *testing.T) {
		po := &model.Document{PODate: "04/26/2024"}
		inv := &model.Document{InvoiceDate: "04/20/2024"}
		r := CheckReferences(po, inv)
		assert.Equal(t, 1, r.Flags["Conflicting dates"])
	})

	t.Run("invoice on or after the po date is fine", func(t *testing.T) {
		po := &model.Document{PODate: "04/26/2024"}
		inv := &model.Document{InvoiceDate: "04/26/2024"}
		r := CheckReferences(po, inv)
		assert.Zero(t, r.Flags["Conflicting dates"])
	})
}
