package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/reconcile-cli/internal/model"
	"github.com/sells-group/reconcile-cli/internal/resilience"
)

// Pool abstracts the pgx connection pool so unit tests can substitute
// pgxmock. *pgxpool.Pool satisfies it.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool. Score updates take a row
// lock (SELECT ... FOR UPDATE) so the blend always reads a settled prior.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id          TEXT PRIMARY KEY,
	is_invoice  BOOLEAN NOT NULL DEFAULT false,
	vendor_name TEXT,
	po_number   TEXT,
	invoice_id  TEXT,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS comparisons (
	id             TEXT PRIMARY KEY,
	po_doc_id      TEXT NOT NULL REFERENCES documents(id),
	invoice_doc_id TEXT NOT NULL REFERENCES documents(id),
	report         JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vendor_scores (
	vendor_id       TEXT NOT NULL,
	persona         TEXT NOT NULL,
	score           DOUBLE PRECISION NOT NULL,
	aggregated_risk DOUBLE PRECISION NOT NULL,
	last_updated    TIMESTAMPTZ NOT NULL,
	decay_weight    DOUBLE PRECISION,
	history         JSONB NOT NULL DEFAULT '[]',
	version         BIGINT NOT NULL DEFAULT 1,
	PRIMARY KEY (vendor_id, persona)
);

CREATE INDEX IF NOT EXISTS idx_documents_vendor_name ON documents(vendor_name);
CREATE INDEX IF NOT EXISTS idx_documents_invoice_id ON documents(invoice_id);
CREATE INDEX IF NOT EXISTS idx_documents_po_number ON documents(po_number);
CREATE INDEX IF NOT EXISTS idx_comparisons_invoice_doc_id ON comparisons(invoice_doc_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateDocument(ctx context.Context, doc *model.Document) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	doc.ID = id
	doc.CreatedAt = now

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal document")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, is_invoice, vendor_name, po_number, invoice_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, doc.IsInvoice, doc.VendorName, doc.PONumber, doc.InvoiceID, payload, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert document")
	}
	return id, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM documents WHERE id = $1`, id,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: document %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get document %s", id)
	}

	var doc model.Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal document")
	}
	return &doc, nil
}

func (s *PostgresStore) ListOtherInvoices(ctx context.Context, excludeDocID string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM documents WHERE is_invoice = true AND id != $1 ORDER BY created_at`,
		excludeDocID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list other invoices")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan invoice")
		}
		var doc model.Document
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal invoice")
		}
		docs = append(docs, doc)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: iterate invoices")
}

func (s *PostgresStore) SaveComparison(ctx context.Context, cmp *model.Comparison) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	cmp.ID = id
	cmp.CreatedAt = now

	report, err := json.Marshal(cmp.Report)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO comparisons (id, po_doc_id, invoice_doc_id, report, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, cmp.PODocID, cmp.InvoiceDocID, report, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert comparison")
	}
	return id, nil
}

func (s *PostgresStore) GetComparison(ctx context.Context, id string) (*model.Comparison, error) {
	var cmp model.Comparison
	var report []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, po_doc_id, invoice_doc_id, report, created_at FROM comparisons WHERE id = $1`, id,
	).Scan(&cmp.ID, &cmp.PODocID, &cmp.InvoiceDocID, &report, &cmp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: comparison %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get comparison %s", id)
	}
	if err := json.Unmarshal(report, &cmp.Report); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal report")
	}
	return &cmp, nil
}

func (s *PostgresStore) ListComparisons(ctx context.Context, limit int) ([]model.Comparison, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, po_doc_id, invoice_doc_id, report, created_at FROM comparisons ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list comparisons")
	}
	defer rows.Close()

	var cmps []model.Comparison
	for rows.Next() {
		var cmp model.Comparison
		var report []byte
		if err := rows.Scan(&cmp.ID, &cmp.PODocID, &cmp.InvoiceDocID, &report, &cmp.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan comparison")
		}
		if err := json.Unmarshal(report, &cmp.Report); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal report")
		}
		cmps = append(cmps, cmp)
	}
	return cmps, eris.Wrap(rows.Err(), "postgres: iterate comparisons")
}

const pgSelectVendorScore = `SELECT vendor_id, persona, score, aggregated_risk, last_updated, decay_weight, history, version
	 FROM vendor_scores WHERE vendor_id = $1 AND persona = $2`

func (s *PostgresStore) GetVendorScore(ctx context.Context, vendorID, persona string) (*model.VendorScore, error) {
	return scanPgVendorScore(s.pool.QueryRow(ctx, pgSelectVendorScore, vendorID, persona))
}

func (s *PostgresStore) UpdateVendorScore(ctx context.Context, vendorID, persona string, apply ApplyScore) (*model.VendorScore, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin score update")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	prior, err := scanPgVendorScore(tx.QueryRow(ctx, pgSelectVendorScore+` FOR UPDATE`, vendorID, persona))
	if err != nil {
		return nil, err
	}

	next, err := apply(prior)
	if err != nil {
		return nil, err
	}

	history, err := json.Marshal(next.History)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal history")
	}

	if prior == nil {
		next.Version = 1
		_, err = tx.Exec(ctx,
			`INSERT INTO vendor_scores (vendor_id, persona, score, aggregated_risk, last_updated, decay_weight, history, version)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			next.VendorID, next.Persona, next.Score, next.AggregatedRisk,
			next.LastUpdated.UTC(), next.DecayWeight, history, next.Version,
		)
		if err != nil {
			// A concurrent first-score insert hits the primary key; retry
			// re-reads the winner's row.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return nil, resilience.NewTransientError(
					eris.Wrapf(ErrConflict, "postgres: vendor score %s/%s", vendorID, persona))
			}
			return nil, eris.Wrap(err, "postgres: insert vendor score")
		}
	} else {
		next.Version = prior.Version + 1
		_, err = tx.Exec(ctx,
			`UPDATE vendor_scores
			 SET score = $1, aggregated_risk = $2, last_updated = $3, decay_weight = $4, history = $5, version = $6
			 WHERE vendor_id = $7 AND persona = $8`,
			next.Score, next.AggregatedRisk, next.LastUpdated.UTC(), next.DecayWeight,
			history, next.Version,
			vendorID, persona,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: update vendor score")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "postgres: commit score update"))
	}
	return next, nil
}

// scanPgVendorScore reads one vendor_scores row; a missing row yields (nil, nil).
func scanPgVendorScore(row pgx.Row) (*model.VendorScore, error) {
	var vs model.VendorScore
	var decay *float64
	var history []byte

	err := row.Scan(&vs.VendorID, &vs.Persona, &vs.Score, &vs.AggregatedRisk,
		&vs.LastUpdated, &decay, &history, &vs.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan vendor score")
	}

	if decay != nil {
		vs.DecayWeight = *decay
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &vs.History); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal score history")
		}
	}
	return &vs, nil
}
