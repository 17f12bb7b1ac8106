package rules

import "github.com/sells-group/reconcile-cli/internal/model"

var missingDataFlags = []string{
	"Missing PO reference",
	"Missing line item details",
	"Missing vendor info",
	"Missing payment terms",
	"Missing tax details",
	"Missing invoice date",
	"Missing delivery information",
}

// CheckMissingData flags required invoice fields that came back empty from
// extraction. Delivery information is only required when the invoice itself
// says shipment is required.
func CheckMissingData(inv *model.Document) Result {
	r := newResult(missingDataFlags)

	if inv.PONumber == "" {
		r.set("Missing PO reference")
	}
	if len(inv.LineItems) == 0 {
		r.set("Missing line item details")
	}
	if inv.VendorName == "" {
		r.set("Missing vendor info")
	}
	if inv.PaymentTerms == "" {
		r.set("Missing payment terms")
	}
	if inv.TaxID == "" {
		r.set("Missing tax details")
	}
	if inv.InvoiceDate == "" {
		r.set("Missing invoice date")
	}
	if inv.DeliveryNote == "" && inv.ShipmentRequired() {
		r.set("Missing delivery information")
	}

	return r.finish()
}
