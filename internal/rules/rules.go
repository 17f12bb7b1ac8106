// Package rules implements the discrepancy rule catalogue: twelve independent
// categories, each a pure function of a purchase order and an invoice (plus,
// for duplicate detection, a set of other invoices), merged by Evaluate into
// one flat flag map and a total score.
package rules

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/reconcile-cli/internal/model"
)

// Result is one category's output: named 0/1 flags and the count of active
// flags.
type Result struct {
	Flags map[string]int
	Score int
}

func newResult(names []string) Result {
	flags := make(map[string]int, len(names))
	for _, n := range names {
		flags[n] = 0
	}
	return Result{Flags: flags}
}

func (r *Result) set(name string) {
	r.Flags[name] = 1
}

func (r *Result) finish() Result {
	for _, v := range r.Flags {
		r.Score += v
	}
	return *r
}

// Category names, in evaluation order.
const (
	CategoryQuantity      = "Quantity Discrepancies"
	CategoryPrice         = "Price Discrepancies"
	CategoryTax           = "Tax and Calculation Errors"
	CategoryDuplicates    = "Duplicate Invoices"
	CategoryMissingData   = "Missing / Incomplete Data"
	CategoryCharges       = "Unauthorized Charges"
	CategoryDescriptions  = "Line Item Description Mismatches"
	CategoryReferences    = "Documentation & Reference Errors"
	CategoryDataEntry     = "Data Entry & Formatting Errors"
	CategoryTiming        = "Timing Issues"
	CategoryCalculation   = "Calculation Errors"
	CategoryAuthorization = "Authorization & Approval Errors"
)

// Categories returns the category names in evaluation order.
func Categories() []string {
	return []string{
		CategoryQuantity,
		CategoryPrice,
		CategoryTax,
		CategoryDuplicates,
		CategoryMissingData,
		CategoryCharges,
		CategoryDescriptions,
		CategoryReferences,
		CategoryDataEntry,
		CategoryTiming,
		CategoryCalculation,
		CategoryAuthorization,
	}
}

// Pair is one independent PO/invoice evaluation unit.
type Pair struct {
	PO      *model.Document
	Invoice *model.Document
	Others  []model.Document
}

// Evaluate runs all twelve categories and merges their flags into one flat
// map. Categories later in the order overwrite colliding flag names from
// earlier ones ("Missing tax details" appears in both the tax and the
// missing-data category); the total still counts every category's score, so a
// collision contributes twice to the total when both sides fire.
func Evaluate(po, inv *model.Document, others []model.Document) *model.DiscrepancyReport {
	categories := []struct {
		name   string
		result Result
	}{
		{CategoryQuantity, CheckQuantity(po, inv)},
		{CategoryPrice, CheckPrice(po, inv)},
		{CategoryTax, CheckTaxCalculation(po, inv)},
		{CategoryDuplicates, CheckDuplicateInvoices(inv, others)},
		{CategoryMissingData, CheckMissingData(inv)},
		{CategoryCharges, CheckUnauthorizedCharges(po, inv)},
		{CategoryDescriptions, CheckLineItemDescriptions(po, inv)},
		{CategoryReferences, CheckReferences(po, inv)},
		{CategoryDataEntry, CheckDataEntry(inv)},
		{CategoryTiming, CheckTiming(inv)},
		{CategoryCalculation, CheckCalculation(inv)},
		{CategoryAuthorization, CheckAuthorization(po, inv)},
	}

	report := &model.DiscrepancyReport{
		DetailedFlags:  make(map[string]int),
		CategoryScores: make(map[string]int, len(categories)),
	}
	for _, c := range categories {
		report.TotalDiscrepancies += c.result.Score
		report.CategoryScores[c.name] = c.result.Score
		for name, v := range c.result.Flags {
			report.DetailedFlags[name] = v
		}
	}

	zap.L().Debug("rules: evaluated pair",
		zap.String("po_number", po.PONumber),
		zap.String("invoice_id", inv.InvoiceID),
		zap.Int("total_discrepancies", report.TotalDiscrepancies),
	)
	return report
}

// FlagOrder is the canonical reduction order for turning a flag map into a
// numeric vector: categories in evaluation order, flags in declaration order
// within each category. "Missing tax details" is carried once, at its first
// (tax-category) position.
func FlagOrder() []string {
	var order []string
	seen := make(map[string]bool)
	for _, group := range [][]string{
		quantityFlags,
		priceFlags,
		taxFlags,
		duplicateFlags,
		missingDataFlags,
		chargeFlags,
		descriptionFlags,
		referenceFlags,
		dataEntryFlags,
		timingFlags,
		calculationFlags,
		authorizationFlags,
	} {
		for _, name := range group {
			if seen[name] {
				continue
			}
			seen[name] = true
			order = append(order, name)
		}
	}
	return order
}

// Vector reduces a report's flag map to an ordered numeric vector following
// FlagOrder. Flags absent from the map read as zero.
func Vector(report *model.DiscrepancyReport) []int {
	order := FlagOrder()
	vec := make([]int, len(order))
	for i, name := range order {
		vec[i] = report.DetailedFlags[name]
	}
	return vec
}

// EvaluatePairs evaluates independent document pairs in parallel. Rule
// evaluation touches no shared state, so pairs shard freely; workers bounds
// concurrency (<=0 means one worker per pair).
func EvaluatePairs(ctx context.Context, pairs []Pair, workers int) ([]*model.DiscrepancyReport, error) {
	reports := make([]*model.DiscrepancyReport, len(pairs))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, p := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = Evaluate(p.PO, p.Invoice, p.Others)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
