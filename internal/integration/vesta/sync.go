package vesta

import (
	"context"

	"origination-engine/internal/domain/application"
)

// SubmissionSync pushes a freshly submitted application into the servicing
// system. It runs on the post-commit runner; a failed sync is retried by
// operations, never by the applicant.
type SubmissionSync struct {
	client Client
}

func NewSubmissionSync(client Client) *SubmissionSync {
	return &SubmissionSync{client: client}
}

func (s *SubmissionSync) Name() string { return "servicing-sync" }

func (s *SubmissionSync) AfterSubmit(ctx context.Context, loan *application.Loan) error {
	data := make(map[string]any, len(loan.Data))
	for section, fields := range loan.Data {
		data[string(section)] = fields
	}
	_, err := s.client.CreateLoan(ctx, loan.ID, data)
	if err == nil {
		return nil
	}
	// A re-run of the sync hits the record a partially completed earlier
	// attempt already created; refreshing it counts as success.
	if updErr := s.client.UpdateLoan(ctx, loan.ID, data); updErr == nil {
		return nil
	}
	return err
}
