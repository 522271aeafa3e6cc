package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/expert-coach-assistant/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026021001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	source_type TEXT NOT NULL DEFAULT 'unknown',
	teaching_context TEXT NOT NULL DEFAULT 'unknown',
	confidence_level TEXT NOT NULL DEFAULT 'unknown',
	authority_score DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	classification_confidence DOUBLE PRECISION NOT NULL DEFAULT 0.1,
	content_quality JSONB NOT NULL DEFAULT '{}'::jsonb,
	evidence JSONB NOT NULL DEFAULT '[]'::jsonb,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_source_type ON documents(source_type);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	qualityJSON, evidenceJSON, err := marshalClassification(doc.Classification)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, mime_type, storage_path,
	source_type, teaching_context, confidence_level,
	authority_score, classification_confidence, content_quality, evidence,
	status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`,
		doc.ID, doc.Filename, doc.MimeType, doc.StoragePath,
		doc.Classification.SourceType, doc.Classification.TeachingContext, doc.Classification.ConfidenceLevel,
		doc.Classification.AuthorityScore, doc.Classification.ClassificationConfidence, qualityJSON, evidenceJSON,
		string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, filename, mime_type, storage_path,
	source_type, teaching_context, confidence_level,
	authority_score, classification_confidence, content_quality, evidence,
	status, error_message, created_at, updated_at
FROM documents
WHERE id = $1
`, id)

	var doc domain.Document
	var qualityRaw, evidenceRaw []byte
	var status string

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.MimeType, &doc.StoragePath,
		&doc.Classification.SourceType, &doc.Classification.TeachingContext, &doc.Classification.ConfidenceLevel,
		&doc.Classification.AuthorityScore, &doc.Classification.ClassificationConfidence, &qualityRaw, &evidenceRaw,
		&status, &doc.Error, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("get document %s: %w", id, domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	if err := json.Unmarshal(qualityRaw, &doc.Classification.ContentQuality); err != nil {
		return nil, fmt.Errorf("unmarshal content quality: %w", err)
	}
	if err := json.Unmarshal(evidenceRaw, &doc.Classification.SupportingEvidence); err != nil {
		return nil, fmt.Errorf("unmarshal evidence: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireRowAffected(res, id)
}

func (r *DocumentRepository) SaveClassification(ctx context.Context, id string, cls domain.DocumentClassification) error {
	qualityJSON, evidenceJSON, err := marshalClassification(cls)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET source_type = $2, teaching_context = $3, confidence_level = $4,
	authority_score = $5, classification_confidence = $6,
	content_quality = $7, evidence = $8, updated_at = $9
WHERE id = $1
`, id, cls.SourceType, cls.TeachingContext, cls.ConfidenceLevel,
		cls.AuthorityScore, cls.ClassificationConfidence,
		qualityJSON, evidenceJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save classification: %w", err)
	}
	return requireRowAffected(res, id)
}

func marshalClassification(cls domain.DocumentClassification) ([]byte, []byte, error) {
	quality := cls.ContentQuality
	if quality == nil {
		quality = map[string]float64{}
	}
	qualityJSON, err := json.Marshal(quality)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal content quality: %w", err)
	}

	evidence := cls.SupportingEvidence
	if evidence == nil {
		evidence = []string{}
	}
	evidenceJSON, err := json.Marshal(evidence)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal evidence: %w", err)
	}
	return qualityJSON, evidenceJSON, nil
}

func requireRowAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update document %s: %w", id, domain.ErrDocumentNotFound)
	}
	return nil
}
