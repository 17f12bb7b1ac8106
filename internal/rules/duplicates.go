package rules

import (
	"github.com/shopspring/decimal"

	"github.com/sells-group/reconcile-cli/internal/model"
)

var duplicateFlags = []string{
	"Exact duplicates",
	"Near-duplicates",
	"Cumulative vs. incremental overlaps",
	"System-generated duplicates",
}

var nearDuplicateTol = decimal.NewFromFloat(1.0)

// CheckDuplicateInvoices scans other invoices for resubmissions of the
// candidate: an identical invoice id is an exact duplicate; otherwise the
// same vendor name with a total within 1.0 is a near-duplicate. The id check
// takes precedence per other-invoice, so one record never trips both.
func CheckDuplicateInvoices(inv *model.Document, others []model.Document) Result {
	r := newResult(duplicateFlags)

	for i := range others {
		other := &others[i]
		if other.InvoiceID == inv.InvoiceID {
			r.set("Exact duplicates")
		} else if other.VendorName == inv.VendorName &&
			other.TotalAmount.Sub(inv.TotalAmount).Abs().Cmp(nearDuplicateTol) <= 0 {
			r.set("Near-duplicates")
		}
	}

	return r.finish()
}
