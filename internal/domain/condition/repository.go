package condition

import "context"

type Repository interface {
	ListByLoan(ctx context.Context, loanID string) ([]Condition, error)

	GetByID(ctx context.Context, conditionID string) (*Condition, error)

	// UpdateStatus transitions a condition from one status to another.
	// Returns apperrors.ErrConflict when the condition is not currently in
	// the expected status.
	UpdateStatus(ctx context.Context, conditionID string, from, to Status) error
}
