package application

import "context"

// Repository persists loan application records. Implementations translate
// between FormData and the loans table's jsonb payload.
type Repository interface {
	// CreateDraft inserts a fresh draft with progress 0 and submitted=false.
	CreateDraft(ctx context.Context, borrowerID string, initial FormData) (*Loan, error)

	// FindDraftByBorrower returns the borrower's single non-submitted draft,
	// or apperrors.ErrNotFound when none exists.
	FindDraftByBorrower(ctx context.Context, borrowerID string) (*Loan, error)

	GetByID(ctx context.Context, loanID string) (*Loan, error)

	GetByViewToken(ctx context.Context, viewToken string) (*Loan, error)

	// SaveSnapshot writes the full form payload, step index and derived
	// summary columns for a loan.
	SaveSnapshot(ctx context.Context, loan *Loan) error

	// MarkSubmitted freezes the loan. Returns apperrors.ErrAlreadySubmitted
	// when the flag was already set.
	MarkSubmitted(ctx context.Context, loanID string) error

	// FindFunnelCapture looks up a prior marketing-funnel application for
	// the borrower to pre-fill a first draft. ErrNotFound when absent.
	FindFunnelCapture(ctx context.Context, borrowerID string) (FormData, error)
}
