// Package money provides total numeric coercion and tolerance-aware equality
// for document amounts. Every rule goes through these helpers so that a
// missing or malformed value behaves as zero instead of failing evaluation.
package money

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/reconcile-cli/internal/model"
)

// Tolerance is the default tolerance for approximate equality.
var Tolerance = decimal.NewFromFloat(0.01)

// FromAny coerces v to an exact decimal. Nil, empty and unparseable inputs
// coerce to zero; this function never fails.
func FromAny(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	default:
		return decimal.Zero
	}
}

// FromPtr dereferences an optional decimal, treating nil as zero.
func FromPtr(p *decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return *p
}

// Equalish reports |a-b| <= tol.
func Equalish(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(tol) <= 0
}

// SubtotalFromLines sums quantity*unit_price over line items that carry both
// fields. Lines missing either field are excluded from the sum rather than
// contributing zero.
func SubtotalFromLines(lines []model.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range lines {
		if li.Quantity == nil || li.UnitPrice == nil {
			continue
		}
		sum = sum.Add(li.Quantity.Mul(*li.UnitPrice))
	}
	return sum
}
