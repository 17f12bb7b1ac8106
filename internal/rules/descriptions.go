package rules

import (
	"strings"

	"github.com/sells-group/reconcile-cli/internal/model"
)

var descriptionFlags = []string{
	"Description text mismatches",
	"Specification mismatches",
	"Brand differences",
	"Wrong product",
}

// CheckLineItemDescriptions compares positionally paired line items on their
// descriptive fields. Each field is compared only when both sides carry it;
// descriptions fold case and surrounding whitespace, the rest compare exactly.
func CheckLineItemDescriptions(po, inv *model.Document) Result {
	r := newResult(descriptionFlags)

	n := min(len(po.LineItems), len(inv.LineItems))
	for i := 0; i < n; i++ {
		poLI, invLI := &po.LineItems[i], &inv.LineItems[i]

		if poLI.Description != "" && invLI.Description != "" &&
			!strings.EqualFold(strings.TrimSpace(poLI.Description), strings.TrimSpace(invLI.Description)) {
			r.set("Description text mismatches")
		}
		if poLI.Spec != "" && invLI.Spec != "" && poLI.Spec != invLI.Spec {
			r.set("Specification mismatches")
		}
		if poLI.Brand != "" && invLI.Brand != "" && poLI.Brand != invLI.Brand {
			r.set("Brand differences")
		}
		if poLI.PartNumber != "" && invLI.PartNumber != "" && poLI.PartNumber != invLI.PartNumber {
			r.set("Wrong product")
		}
	}

	return r.finish()
}
