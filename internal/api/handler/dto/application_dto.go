package dto

import (
	"fmt"
	"strings"
	"time"

	"origination-engine/internal/domain/application"
)

type LoadDraftRequest struct {
	BorrowerID string `json:"borrowerId"`
}

func (r *LoadDraftRequest) Validate() error {
	if strings.TrimSpace(r.BorrowerID) == "" {
		return fmt.Errorf("borrowerId cannot be empty")
	}
	return nil
}

type UpdateFieldRequest struct {
	Section string `json:"section"`
	Field   string `json:"field"`
	Value   any    `json:"value"`
}

func (r *UpdateFieldRequest) Validate() error {
	if !application.ValidSection(application.Section(r.Section)) {
		return fmt.Errorf("unknown section: %s", r.Section)
	}
	if strings.TrimSpace(r.Field) == "" {
		return fmt.Errorf("field cannot be empty")
	}
	return nil
}

type GoToStepRequest struct {
	Step int `json:"step"`
}

func (r *GoToStepRequest) Validate() error {
	if r.Step < 0 || r.Step >= application.SectionCount {
		return fmt.Errorf("step must be between 0 and %d", application.SectionCount-1)
	}
	return nil
}

type ApplicationResponse struct {
	LoanID       string               `json:"loanId"`
	BorrowerID   string               `json:"borrowerId"`
	Data         application.FormData `json:"data"`
	Progress     int                  `json:"progress"`
	SectionCount int                  `json:"sectionCount"`
	Submitted    bool                 `json:"submitted"`
	ViewToken    string               `json:"viewToken,omitempty"`
	CreatedAt    time.Time            `json:"createdAt"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

func NewApplicationResponse(loan *application.Loan) ApplicationResponse {
	if loan == nil {
		return ApplicationResponse{}
	}
	return ApplicationResponse{
		LoanID:       loan.ID,
		BorrowerID:   loan.BorrowerID,
		Data:         loan.Data,
		Progress:     loan.Progress,
		SectionCount: application.SectionCount,
		Submitted:    loan.Submitted,
		ViewToken:    loan.ViewToken,
		CreatedAt:    loan.CreatedAt,
		UpdatedAt:    loan.UpdatedAt,
	}
}

type StepResponse struct {
	Step int `json:"step"`
}

type SubmitResponse struct {
	LoanID    string `json:"loanId"`
	Submitted bool   `json:"submitted"`
}

// ValidationResponse maps section keys to their field errors. Sections with
// no errors are omitted entirely.
type ValidationResponse struct {
	Valid  bool                         `json:"valid"`
	Errors map[string]map[string]string `json:"errors,omitempty"`
}

func NewValidationResponse(errs map[application.Section]map[string]string) ValidationResponse {
	if len(errs) == 0 {
		return ValidationResponse{Valid: true}
	}
	out := make(map[string]map[string]string, len(errs))
	for section, fields := range errs {
		out[string(section)] = fields
	}
	return ValidationResponse{Valid: false, Errors: out}
}

// StatusResponse is the read-only summary served for a view-token lookup.
// It deliberately excludes the form payload.
type StatusResponse struct {
	LoanID          string    `json:"loanId"`
	Submitted       bool      `json:"submitted"`
	Progress        int       `json:"progress"`
	LoanAmount      float64   `json:"loanAmount,omitempty"`
	LoanType        string    `json:"loanType,omitempty"`
	PropertyAddress string    `json:"propertyAddress,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func NewStatusResponse(loan *application.Loan) StatusResponse {
	if loan == nil {
		return StatusResponse{}
	}
	return StatusResponse{
		LoanID:          loan.ID,
		Submitted:       loan.Submitted,
		Progress:        loan.Progress,
		LoanAmount:      loan.LoanAmount,
		LoanType:        loan.LoanType,
		PropertyAddress: loan.PropertyAddress,
		UpdatedAt:       loan.UpdatedAt,
	}
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
