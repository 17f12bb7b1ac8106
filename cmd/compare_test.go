package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/rules"
)

func TestCompareCmd_Flags(t *testing.T) {
	flags := []struct {
		name     string
		defValue string
	}{
		{"others", ""},
		{"save", "false"},
		{"batch", ""},
		{"workers", "0"},
		{"format", "table"},
		{"output", ""},
	}

	for _, f := range flags {
		flag := compareCmd.Flags().Lookup(f.name)
		assert.NotNil(t, flag, "compare should have --%s flag", f.name)
		assert.Equal(t, f.defValue, flag.DefValue, "flag --%s default value mismatch", f.name)
	}
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "invoice.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"vendor_name": "Acme Industrial",
		"invoice_id": "INV-2001",
		"is_invoice": true,
		"total_amount": 13113.28,
		"line_items": [{"description": "Pump", "quantity": 30, "unit_price": 250}]
	}`), 0o644))

	doc, err := loadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "Acme Industrial", doc.VendorName)
	assert.True(t, doc.IsInvoice)
	require.Len(t, doc.LineItems, 1)
	require.NotNil(t, doc.LineItems[0].Quantity)

	t.Run("missing file", func(t *testing.T) {
		_, err := loadDocument(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{"), 0o644))
		_, err := loadDocument(bad)
		assert.Error(t, err)
	})
}

func TestRaisedFlags_FollowsVectorOrder(t *testing.T) {
	report := &model.DiscrepancyReport{
		DetailedFlags: map[string]int{
			"Late invoice submission":  1,
			"Over-billing on quantity": 1,
			"Missing tax details":      0,
		},
	}

	got := raisedFlags(report)
	require.Len(t, got, 2)
	assert.Equal(t, "Over-billing on quantity", got[0])
	assert.Equal(t, "Late invoice submission", got[1])

	order := rules.FlagOrder()
	assert.Contains(t, order, got[0])
}
