package rules

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/reconcile-cli/internal/model"
)

var chargeFlags = []string{
	"Freight charges not in PO",
	"Handling charges",
	"Cold chain surcharges",
	"Expedited delivery fees",
	"Tariffs/customs",
	"Service charges",
}

// chargeFields pairs each auditable charge field with its value accessor.
// Both tariff and customs resolve to the shared "Tariffs/customs" flag via
// the first-token scan below.
var chargeFields = []struct {
	name  string
	value func(d *model.Document) decimal.Decimal
}{
	{"freight", func(d *model.Document) decimal.Decimal { return d.Freight }},
	{"handling", func(d *model.Document) decimal.Decimal { return d.Handling }},
	{"cold_chain_surcharge", func(d *model.Document) decimal.Decimal { return d.ColdChainSurcharge }},
	{"expedited_fee", func(d *model.Document) decimal.Decimal { return d.ExpeditedFee }},
	{"tariff", func(d *model.Document) decimal.Decimal { return d.Tariff }},
	{"customs", func(d *model.Document) decimal.Decimal { return d.Customs }},
	{"service_charge", func(d *model.Document) decimal.Decimal { return d.ServiceCharge }},
}

// CheckUnauthorizedCharges flags any charge field that is non-zero on the
// invoice while zero on the PO. The field resolves to a flag by scanning the
// flag labels in order for the field's first underscore-delimited token; the
// first label containing it wins.
func CheckUnauthorizedCharges(po, inv *model.Document) Result {
	r := newResult(chargeFlags)

	for _, f := range chargeFields {
		if f.value(inv).IsPositive() && f.value(po).IsZero() {
			token, _, _ := strings.Cut(f.name, "_")
			for _, flag := range chargeFlags {
				if strings.Contains(strings.ToLower(flag), token) {
					r.set(flag)
					break
				}
			}
		}
	}

	return r.finish()
}
