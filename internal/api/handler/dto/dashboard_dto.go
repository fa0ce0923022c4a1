package dto

import (
	"fmt"
	"strings"
	"time"

	"origination-engine/internal/domain/document"
	"origination-engine/internal/integration/vesta"
)

type BorrowerLoginRequest struct {
	LoanNumber string `json:"loanNumber"`
	ZipCode    string `json:"zipCode,omitempty"`
	PhoneLast4 string `json:"phoneLast4,omitempty"`
}

func (r *BorrowerLoginRequest) Validate() error {
	if strings.TrimSpace(r.LoanNumber) == "" {
		return fmt.Errorf("loanNumber cannot be empty")
	}
	if strings.TrimSpace(r.ZipCode) == "" && strings.TrimSpace(r.PhoneLast4) == "" {
		return fmt.Errorf("either zipCode or phoneLast4 is required")
	}
	if r.PhoneLast4 != "" && len(r.PhoneLast4) != 4 {
		return fmt.Errorf("phoneLast4 must be exactly 4 digits")
	}
	return nil
}

type BorrowerLoginResponse struct {
	Token string              `json:"token"`
	Loan  LoanSnapshotSummary `json:"loan"`
}

// LoanSnapshotSummary is the user-facing slice of a servicing-system loan
// snapshot. The upstream access token never appears here.
type LoanSnapshotSummary struct {
	LoanNumber      string  `json:"loanNumber"`
	BorrowerName    string  `json:"borrowerName"`
	Status          string  `json:"status"`
	LoanAmount      float64 `json:"loanAmount,omitempty"`
	LoanType        string  `json:"loanType,omitempty"`
	PropertyAddress string  `json:"propertyAddress,omitempty"`
}

func NewLoanSnapshotSummary(snap *vesta.LoanSnapshot) LoanSnapshotSummary {
	if snap == nil {
		return LoanSnapshotSummary{}
	}
	return LoanSnapshotSummary{
		LoanNumber:      snap.LoanNumber,
		BorrowerName:    snap.BorrowerName,
		Status:          snap.Status,
		LoanAmount:      snap.LoanAmount,
		LoanType:        snap.LoanType,
		PropertyAddress: snap.PropertyAddress,
	}
}

type QuestionRequest struct {
	LoanNumber string `json:"loanNumber,omitempty"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Question   string `json:"question"`
}

func (r *QuestionRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if strings.TrimSpace(r.Question) == "" {
		return fmt.Errorf("question cannot be empty")
	}
	return nil
}

type DocumentResponse struct {
	DocumentID  string    `json:"documentId"`
	LoanID      string    `json:"loanId"`
	ConditionID string    `json:"conditionId,omitempty"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	PublicURL   string    `json:"publicUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewDocumentResponse(doc *document.Document) DocumentResponse {
	if doc == nil {
		return DocumentResponse{}
	}
	return DocumentResponse{
		DocumentID:  doc.ID,
		LoanID:      doc.LoanID,
		ConditionID: doc.ConditionID,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		PublicURL:   doc.PublicURL,
		CreatedAt:   doc.CreatedAt,
	}
}
