package rules

import "github.com/sells-group/reconcile-cli/internal/model"

var timingFlags = []string{
	"Late invoice submission",
	"Back-dated invoices",
	"Service period overlaps",
}

// CheckTiming flags invoices issued after delivery and service periods that
// run backwards. Comparisons are lexicographic over the stored date strings.
func CheckTiming(inv *model.Document) Result {
	r := newResult(timingFlags)

	if inv.InvoiceDate != "" && inv.DeliveryDate != "" && inv.InvoiceDate > inv.DeliveryDate {
		r.set("Late invoice submission")
	}
	if inv.ServiceFrom != "" && inv.ServiceTo != "" && inv.ServiceFrom > inv.ServiceTo {
		r.set("Back-dated invoices")
	}

	return r.finish()
}
