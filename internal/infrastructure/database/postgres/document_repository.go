package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"origination-engine/internal/domain/document"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
)

type DocumentRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewDocumentRepository(db DBPool, logger *slog.Logger) *DocumentRepository {
	return &DocumentRepository{db: db, logger: logger.With("component", "DocumentRepository")}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *document.Document) (*document.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	query := `
        INSERT INTO documents (id, loan_id, condition_id, file_name, content_type, size_bytes, public_url, created_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, NOW())
        RETURNING created_at`

	status := "success"
	startTime := time.Now()
	created := *doc
	err := r.db.QueryRow(ctx, query,
		doc.ID, doc.LoanID, doc.ConditionID, doc.FileName, doc.ContentType, doc.SizeBytes, doc.PublicURL,
	).Scan(&created.CreatedAt)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("CreateDocument", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert document", "loan_id", doc.LoanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Document created in DB", "document_id", created.ID, "loan_id", created.LoanID)
	return &created, nil
}

func (r *DocumentRepository) ListByLoan(ctx context.Context, loanID string) ([]document.Document, error) {
	query := `
        SELECT id, loan_id, COALESCE(condition_id, ''), file_name, content_type, size_bytes, public_url, created_at
        FROM documents
        WHERE loan_id = $1
        ORDER BY created_at DESC`

	status := "success"
	startTime := time.Now()
	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		monitoring.RecordDBQuery("ListDocumentsByLoan", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to query documents", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	docs := make([]document.Document, 0)
	for rows.Next() {
		var d document.Document
		if scanErr := rows.Scan(
			&d.ID, &d.LoanID, &d.ConditionID, &d.FileName, &d.ContentType,
			&d.SizeBytes, &d.PublicURL, &d.CreatedAt,
		); scanErr != nil {
			monitoring.RecordDBQuery("ListDocumentsByLoan", "error", time.Since(startTime))
			r.logger.ErrorContext(ctx, "Failed to scan document row", "loan_id", loanID, "error", scanErr)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, scanErr)
		}
		docs = append(docs, d)
	}
	rowsErr := rows.Err()
	if rowsErr != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("ListDocumentsByLoan", status, time.Since(startTime))
	if rowsErr != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, rowsErr)
	}
	return docs, nil
}
