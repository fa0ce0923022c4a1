package document

import (
	"context"
	"time"
)

// Document is a file reference tied to a loan and optionally a condition.
// Immutable once created.
type Document struct {
	ID          string
	LoanID      string
	ConditionID string
	FileName    string
	ContentType string
	SizeBytes   int64
	PublicURL   string
	CreatedAt   time.Time
}

type Repository interface {
	Create(ctx context.Context, doc *Document) (*Document, error)

	ListByLoan(ctx context.Context, loanID string) ([]Document, error)
}
