package application

import "time"

// Loan is the persisted application record. Exactly one non-submitted draft
// exists per borrower; once Submitted flips true the record is terminal for
// the applicant.
type Loan struct {
	ID              string
	BorrowerID      string
	Data            FormData
	Progress        int
	Submitted       bool
	ViewToken       string
	LoanAmount      float64
	LoanType        string
	PropertyAddress string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DeriveSummary refreshes the flat query-convenience columns from the nested
// form data. Called on every write so the columns never drift.
func (l *Loan) DeriveSummary() {
	if l.Data == nil {
		return
	}
	l.LoanAmount = l.Data.Number(SectionLoanDetails, "loanAmount")
	l.LoanType = l.Data.String(SectionLoanDetails, "loanPurpose")

	street := l.Data.String(SectionProperty, "street")
	city := l.Data.String(SectionProperty, "city")
	state := l.Data.String(SectionProperty, "state")
	addr := street
	if city != "" {
		if addr != "" {
			addr += ", "
		}
		addr += city
	}
	if state != "" {
		if addr != "" {
			addr += ", "
		}
		addr += state
	}
	l.PropertyAddress = addr
}

// Snapshot is the unit of persistence: the full current form state, never a
// diff, so overlapping saves are idempotent and last-write-wins.
type Snapshot struct {
	LoanID     string
	BorrowerID string
	ViewToken  string
	Data       FormData
	Step       int
	Submitted  bool
}
