package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/reconcile-cli/internal/model"
)

func TestCheckLineItemDescriptions(t *testing.T) {
	t.Run("case and whitespace fold for descriptions", func(t *testing.T) {
		po := &model.Document{LineItems: []model.LineItem{{Description: "Industrial Pump"}}}
		inv := &model.Document{LineItems: []model.LineItem{{Description: "  industrial pump "}}}
		r := CheckLineItemDescriptions(po, inv)
		assert.Zero(t, r.Flags["Description text mismatches"])
	})

	t.Run("different descriptions flag", func(t *testing.T) {
		po := &model.Document{LineItems: []model.LineItem{{Description: "Industrial Pump"}}}
		inv := &model.Document{LineItems: []model.LineItem{{Description: "Hydraulic Pump"}}}
		r := CheckLineItemDescriptions(po, inv)
		assert.Equal(t, 1, r.Flags["Description text mismatches"])
	})

	t.Run("spec brand and part number compare exactly", func(t *testing.T) {
		po := &model.Document{LineItems: []model.LineItem{{Spec: "DN50", Brand: "Vortex", PartNumber: "VP-100"}}}
		inv := &model.Document{LineItems: []model.LineItem{{Spec: "DN80", Brand: "vortex", PartNumber: "VP-200"}}}
		r := CheckLineItemDescriptions(po, inv)
		assert.Equal(t, 1, r.Flags["Specification mismatches"])
		assert.Equal(t, 1, r.Flags["Brand differences"])
		assert.Equal(t, 1, r.Flags["Wrong product"])
	})

	t.Run("one-sided fields never compare", func(t *testing.T) {
		po := &model.Document{LineItems: []model.LineItem{{Description: "Pump", Brand: "Vortex"}}}
		inv := &model.Document{LineItems: []model.LineItem{{Description: "Pump"}}}
		r := CheckLineItemDescriptions(po, inv)
		assert.Zero(t, r.Score)
	})

	t.Run("extra invoice lines are ignored", func(t *testing.T) {
		po := &model.Document{LineItems: []model.LineItem{{Description: "Pump"}}}
		inv := &model.Document{LineItems: []model.LineItem{{Description: "Pump"}, {Description: "Mystery item"}}}
		r := CheckLineItemDescriptions(po, inv)
		assert.Zero(t, r.Score)
	})
}
