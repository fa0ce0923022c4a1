package borrower

import (
	"context"
	"time"
)

// Profile is the borrower-side account record. The application service only
// writes its phone field, best-effort, after a successful save.
type Profile struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ProfileRepository interface {
	GetByID(ctx context.Context, borrowerID string) (*Profile, error)

	// UpsertPhone records the applicant's phone on their profile row,
	// creating the row when absent.
	UpsertPhone(ctx context.Context, borrowerID, phone string) error
}
