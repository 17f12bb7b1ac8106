// Package model defines the plain data shapes exchanged between the rule
// evaluator, the persona scorer, and the store.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document is a normalized commercial document: either a purchase order or an
// invoice. Both share the same shape; IsInvoice distinguishes them. Fields are
// produced by an external extraction pipeline and may be absent: money fields
// default to zero, dates are opaque strings, and bool fields are pointers so
// "unknown" is distinguishable from false.
type Document struct {
	ID string `json:"id,omitempty"`

	// Core identifiers
	VendorName string `json:"vendor_name,omitempty"`
	VendorID   string `json:"vendor_id,omitempty"`
	PONumber   string `json:"po_number,omitempty"`
	InvoiceID  string `json:"invoice_id,omitempty"`

	IsInvoice bool `json:"is_invoice"`

	// Financials
	TotalAmount        decimal.Decimal `json:"total_amount"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	Discount           decimal.Decimal `json:"discount"`
	DiscountPercent    decimal.Decimal `json:"discount_percent"`
	Surcharge          decimal.Decimal `json:"surcharge"`
	Freight            decimal.Decimal `json:"freight"`
	Handling           decimal.Decimal `json:"handling"`
	ColdChainSurcharge decimal.Decimal `json:"cold_chain_surcharge"`
	ExpeditedFee       decimal.Decimal `json:"expedited_fee"`
	Tariff             decimal.Decimal `json:"tariff"`
	Customs            decimal.Decimal `json:"customs"`
	ServiceCharge      decimal.Decimal `json:"service_charge"`

	// Dates. Stored exactly as extracted (expected zero-padded MM/DD/YYYY);
	// rules compare them as strings, not as calendar dates.
	InvoiceDate  string `json:"invoice_date,omitempty"`
	PODate       string `json:"po_date,omitempty"`
	DeliveryDate string `json:"delivery_date,omitempty"`
	ServiceFrom  string `json:"service_from,omitempty"`
	ServiceTo    string `json:"service_to,omitempty"`

	// Vendor & payment
	TaxID          string `json:"tax_id,omitempty"`
	BankAccount    string `json:"bank_account,omitempty"`
	PaymentMethod  string `json:"payment_method,omitempty"`
	PaymentTerms   string `json:"payment_terms,omitempty"`
	VendorApproved *bool  `json:"vendor_approved,omitempty"`

	// Logistics & references
	GRN              string `json:"grn,omitempty"`
	DeliveryNote     string `json:"delivery_note,omitempty"`
	TrackingNumber   string `json:"tracking_number,omitempty"`
	BillTo           string `json:"bill_to,omitempty"`
	CostCenter       string `json:"cost_center,omitempty"`
	RequiresShipment *bool  `json:"requires_shipment,omitempty"`

	Notes     string     `json:"notes,omitempty"`
	LineItems []LineItem `json:"line_items"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// LineItem is one line of a document. Quantity, UnitPrice and Total are
// pointers because several rules distinguish an absent field from an explicit
// zero (e.g. line-derived subtotals exclude lines missing either factor).
type LineItem struct {
	Description string           `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Total       *decimal.Decimal `json:"total,omitempty"`
	PartNumber  string           `json:"part_number,omitempty"`
	Brand       string           `json:"brand,omitempty"`
	Color       string           `json:"color,omitempty"`
	Size        string           `json:"size,omitempty"`
	Spec        string           `json:"spec,omitempty"`
	TaxExempt   bool             `json:"tax_exempt,omitempty"`
}

// ShipmentRequired reports whether the document's requires_shipment flag is
// present and set.
func (d *Document) ShipmentRequired() bool {
	return d.RequiresShipment != nil && *d.RequiresShipment
}
