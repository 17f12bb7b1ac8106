package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/resilience"
)

// SQLiteStore implements Store using modernc.org/sqlite. Score updates use
// version compare-and-swap inside a transaction; a lost race reports a
// transient conflict for the caller to retry.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	is_invoice  INTEGER NOT NULL DEFAULT 0,
	vendor_name TEXT,
	po_number   TEXT,
	invoice_id  TEXT,
	payload     TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS comparisons (
	id             TEXT PRIMARY KEY,
	po_doc_id      TEXT NOT NULL REFERENCES documents(id),
	invoice_doc_id TEXT NOT NULL REFERENCES documents(id),
	report         TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS vendor_scores (
	vendor_id       TEXT NOT NULL,
	persona         TEXT NOT NULL,
	score           REAL NOT NULL,
	aggregated_risk REAL NOT NULL,
	last_updated    DATETIME NOT NULL,
	decay_weight    REAL,
	history         TEXT NOT NULL DEFAULT '[]',
	version         INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (vendor_id, persona)
);

CREATE INDEX IF NOT EXISTS idx_documents_vendor_name ON documents(vendor_name);
CREATE INDEX IF NOT EXISTS idx_documents_invoice_id ON documents(invoice_id);
CREATE INDEX IF NOT EXISTS idx_documents_po_number ON documents(po_number);
CREATE INDEX IF NOT EXISTS idx_comparisons_invoice_doc_id ON comparisons(invoice_doc_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *model.Document) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	doc.ID = id
	doc.CreatedAt = now

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal document")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, is_invoice, vendor_name, po_number, invoice_id, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, boolToInt(doc.IsInvoice), doc.VendorName, doc.PONumber, doc.InvoiceID, string(payload), now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert document")
	}
	return id, nil
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM documents WHERE id = ?`, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: document %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get document %s", id)
	}

	var doc model.Document
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal document")
	}
	return &doc, nil
}

func (s *SQLiteStore) ListOtherInvoices(ctx context.Context, excludeDocID string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM documents WHERE is_invoice = 1 AND id != ? ORDER BY created_at`,
		excludeDocID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list other invoices")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan invoice")
		}
		var doc model.Document
		if err := json.Unmarshal([]byte(payload), &doc); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal invoice")
		}
		docs = append(docs, doc)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: iterate invoices")
}

func (s *SQLiteStore) SaveComparison(ctx context.Context, cmp *model.Comparison) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	cmp.ID = id
	cmp.CreatedAt = now

	report, err := json.Marshal(cmp.Report)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO comparisons (id, po_doc_id, invoice_doc_id, report, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, cmp.PODocID, cmp.InvoiceDocID, string(report), now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert comparison")
	}
	return id, nil
}

func (s *SQLiteStore) GetComparison(ctx context.Context, id string) (*model.Comparison, error) {
	var cmp model.Comparison
	var report string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, po_doc_id, invoice_doc_id, report, created_at FROM comparisons WHERE id = ?`, id,
	).Scan(&cmp.ID, &cmp.PODocID, &cmp.InvoiceDocID, &report, &cmp.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: comparison %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get comparison %s", id)
	}
	if err := json.Unmarshal([]byte(report), &cmp.Report); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal report")
	}
	return &cmp, nil
}

func (s *SQLiteStore) ListComparisons(ctx context.Context, limit int) ([]model.Comparison, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, po_doc_id, invoice_doc_id, report, created_at FROM comparisons ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list comparisons")
	}
	defer rows.Close()

	var cmps []model.Comparison
	for rows.Next() {
		var cmp model.Comparison
		var report string
		if err := rows.Scan(&cmp.ID, &cmp.PODocID, &cmp.InvoiceDocID, &report, &cmp.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan comparison")
		}
		if err := json.Unmarshal([]byte(report), &cmp.Report); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal report")
		}
		cmps = append(cmps, cmp)
	}
	return cmps, eris.Wrap(rows.Err(), "sqlite: iterate comparisons")
}

func (s *SQLiteStore) GetVendorScore(ctx context.Context, vendorID, persona string) (*model.VendorScore, error) {
	return scanVendorScore(s.db.QueryRowContext(ctx,
		`SELECT vendor_id, persona, score, aggregated_risk, last_updated, decay_weight, history, version
		 FROM vendor_scores WHERE vendor_id = ? AND persona = ?`,
		vendorID, persona,
	))
}

func (s *SQLiteStore) UpdateVendorScore(ctx context.Context, vendorID, persona string, apply ApplyScore) (*model.VendorScore, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin score update")
	}
	defer tx.Rollback() //nolint:errcheck

	prior, err := scanVendorScore(tx.QueryRowContext(ctx,
		`SELECT vendor_id, persona, score, aggregated_risk, last_updated, decay_weight, history, version
		 FROM vendor_scores WHERE vendor_id = ? AND persona = ?`,
		vendorID, persona,
	))
	if err != nil {
		return nil, err
	}

	next, err := apply(prior)
	if err != nil {
		return nil, err
	}

	history, err := json.Marshal(next.History)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal history")
	}

	if prior == nil {
		next.Version = 1
		_, err = tx.ExecContext(ctx,
			`INSERT INTO vendor_scores (vendor_id, persona, score, aggregated_risk, last_updated, decay_weight, history, version)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			next.VendorID, next.Persona, next.Score, next.AggregatedRisk,
			next.LastUpdated.UTC(), next.DecayWeight, string(history), next.Version,
		)
		if err != nil {
			return nil, resilience.NewTransientError(eris.Wrap(err, "sqlite: insert vendor score"))
		}
	} else {
		next.Version = prior.Version + 1
		res, err := tx.ExecContext(ctx,
			`UPDATE vendor_scores
			 SET score = ?, aggregated_risk = ?, last_updated = ?, decay_weight = ?, history = ?, version = ?
			 WHERE vendor_id = ? AND persona = ? AND version = ?`,
			next.Score, next.AggregatedRisk, next.LastUpdated.UTC(), next.DecayWeight,
			string(history), next.Version,
			vendorID, persona, prior.Version,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: update vendor score")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: rows affected")
		}
		if n == 0 {
			return nil, resilience.NewTransientError(
				eris.Wrapf(ErrConflict, "sqlite: vendor score %s/%s version %d", vendorID, persona, prior.Version))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "sqlite: commit score update"))
	}
	return next, nil
}

// helpers

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

// scanVendorScore reads one vendor_scores row; a missing row yields (nil, nil).
func scanVendorScore(row scannable) (*model.VendorScore, error) {
	var vs model.VendorScore
	var decay sql.NullFloat64
	var history string

	err := row.Scan(&vs.VendorID, &vs.Persona, &vs.Score, &vs.AggregatedRisk,
		&vs.LastUpdated, &decay, &history, &vs.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan vendor score")
	}

	if decay.Valid {
		vs.DecayWeight = decay.Float64
	}
	if err := json.Unmarshal([]byte(history), &vs.History); err != nil {
		return nil, eris.Wrap(err, "unmarshal score history")
	}
	return &vs, nil
}
