// Package store persists documents, comparison reports, and vendor persona
// scores behind one interface with SQLite and Postgres backends.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// ErrConflict is returned when a concurrent writer invalidated a
// read-modify-write cycle. It is always wrapped as a transient error so
// callers retry.
var ErrConflict = eris.New("store: write conflict")

// ApplyScore transforms the prior score record (nil when the pair has never
// been scored) into the record to persist. It runs inside the update
// transaction and must be side-effect free.
type ApplyScore func(prior *model.VendorScore) (*model.VendorScore, error)

// Store defines the persistence interface for the reconciliation engine.
type Store interface {
	// Documents
	CreateDocument(ctx context.Context, doc *model.Document) (string, error)
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	// ListOtherInvoices returns every stored invoice except the one with the
	// given document id; it feeds duplicate detection.
	ListOtherInvoices(ctx context.Context, excludeDocID string) ([]model.Document, error)

	// Comparisons
	SaveComparison(ctx context.Context, cmp *model.Comparison) (string, error)
	GetComparison(ctx context.Context, id string) (*model.Comparison, error)
	// ListComparisons returns the most recent comparisons, newest first.
	// A non-positive limit applies a default of 50.
	ListComparisons(ctx context.Context, limit int) ([]model.Comparison, error)

	// Vendor scores. GetVendorScore returns (nil, nil) for an absent pair.
	// UpdateVendorScore runs apply inside a single transaction so the blend
	// always sees a consistent prior value; concurrent updates to the same
	// (vendor, persona) surface as transient conflicts.
	GetVendorScore(ctx context.Context, vendorID, persona string) (*model.VendorScore, error)
	UpdateVendorScore(ctx context.Context, vendorID, persona string, apply ApplyScore) (*model.VendorScore, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
