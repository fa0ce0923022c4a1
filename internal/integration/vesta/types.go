package vesta

import "origination-engine/internal/domain/condition"

// LoanSnapshot is the denormalized loan record the servicing system returns
// on a successful borrower login. It is never persisted by this service;
// it only lives inside a borrower session.
type LoanSnapshot struct {
	LoanID          string  `json:"loanId"`
	LoanNumber      string  `json:"loanNumber"`
	BorrowerName    string  `json:"borrowerName"`
	BorrowerEmail   string  `json:"borrowerEmail,omitempty"`
	Status          string  `json:"status"`
	LoanAmount      float64 `json:"loanAmount"`
	LoanType        string  `json:"loanType,omitempty"`
	PropertyAddress string  `json:"propertyAddress,omitempty"`

	// AccessToken is the per-borrower bearer token the login response
	// grants for follow-up calls. Omitted from anything user-facing.
	AccessToken string `json:"-"`
}

type borrowerLoginRequest struct {
	LoanNumber string `json:"loanNumber"`
	ZipCode    string `json:"zipCode,omitempty"`
	PhoneLast4 string `json:"phoneLast4,omitempty"`
}

type borrowerLoginResponse struct {
	Loan        *LoanSnapshot `json:"loan,omitempty"`
	AccessToken string        `json:"accessToken,omitempty"`
	ZipMismatch bool          `json:"zipMismatch,omitempty"`
	Error       string        `json:"error,omitempty"`
}

type createLoanRequest struct {
	LoanNumber string         `json:"loanNumber,omitempty"`
	Data       map[string]any `json:"data"`
}

type createLoanResponse struct {
	LoanID string `json:"loanId"`
	Error  string `json:"error,omitempty"`
}

type updateLoanRequest struct {
	LoanID string         `json:"loanId"`
	Data   map[string]any `json:"data"`
}

type fetchConditionsRequest struct {
	LoanID   string   `json:"loanId"`
	Statuses []string `json:"statuses,omitempty"`
}

type fetchConditionsResponse struct {
	Conditions []condition.Condition `json:"conditions"`
	Error      string                `json:"error,omitempty"`
}

type uploadDocumentRequest struct {
	LoanID      string `json:"loanId"`
	ConditionID string `json:"conditionId,omitempty"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	// Content carries the file payload base64-encoded, per the upstream
	// contract.
	Content string `json:"content"`
}

type uploadDocumentResponse struct {
	DocumentID string `json:"documentId"`
	Error      string `json:"error,omitempty"`
}

type submitQuestionRequest struct {
	LoanNumber string `json:"loanNumber,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Question   string `json:"question"`
}

type actionError struct {
	Error string `json:"error,omitempty"`
}
