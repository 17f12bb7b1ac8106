package model

import "time"

// DiscrepancyReport is the output of one rule evaluation over a PO/invoice
// pair: a flat 0/1 flag map, per-category subtotals, and the total score
// (sum of all category scores).
type DiscrepancyReport struct {
	TotalDiscrepancies int            `json:"total_discrepancies"`
	DetailedFlags      map[string]int `json:"detailed_flags"`
	CategoryScores     map[string]int `json:"category_scores,omitempty"`
}

// Comparison is a persisted evaluation: the report plus references to the
// documents it was computed from.
type Comparison struct {
	ID           string            `json:"id"`
	PODocID      string            `json:"po_doc_id"`
	InvoiceDocID string            `json:"invoice_doc_id"`
	Report       DiscrepancyReport `json:"report"`
	CreatedAt    time.Time         `json:"created_at"`
}
