package rules

import "github.com/sells-group/reconcile-cli/internal/model"

var referenceFlags = []string{
	"Wrong PO number",
	"Incorrect cost center",
	"Wrong service dates",
	"Conflicting dates",
	"Wrong bill-to address",
	"Vendor mismatches",
}

// CheckReferences flags reference fields that disagree between the two
// documents, comparing only when both sides are present. Dates conflict when
// the invoice date orders before the PO date; date strings compare
// lexicographically, which assumes one zero-padded format across documents.
func CheckReferences(po, inv *model.Document) Result {
	r := newResult(referenceFlags)

	if bothSetAndDiffer(po.PONumber, inv.PONumber) {
		r.set("Wrong PO number")
	}
	if bothSetAndDiffer(po.CostCenter, inv.CostCenter) {
		r.set("Incorrect cost center")
	}
	if bothSetAndDiffer(po.ServiceFrom, inv.ServiceFrom) {
		r.set("Wrong service dates")
	}
	if bothSetAndDiffer(po.BillTo, inv.BillTo) {
		r.set("Wrong bill-to address")
	}
	if bothSetAndDiffer(po.VendorName, inv.VendorName) {
		r.set("Vendor mismatches")
	}

	if po.PODate != "" && inv.InvoiceDate != "" && inv.InvoiceDate < po.PODate {
		r.set("Conflicting dates")
	}

	return r.finish()
}

func bothSetAndDiffer(a, b string) bool {
	return a != "" && b != "" && a != b
}
