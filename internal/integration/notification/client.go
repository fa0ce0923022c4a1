// Package notification delivers submission notices to the hosted notify
// function. Delivery is fire-and-forget from the applicant's point of view.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"origination-engine/internal/config"
	"origination-engine/internal/domain/application"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
)

// payload mirrors what the notify function expects. ApplicationData carries
// the full section map so the rendered email needs no follow-up fetch.
type payload struct {
	ApplicationType   string               `json:"applicationType"`
	ApplicantName     string               `json:"applicantName"`
	ApplicantEmail    string               `json:"applicantEmail"`
	ApplicationNumber string               `json:"applicationNumber"`
	ViewToken         string               `json:"viewToken,omitempty"`
	ApplicationData   application.FormData `json:"applicationData"`
}

type Notifier struct {
	url    string
	token  string
	http   *http.Client
	logger *slog.Logger
}

func NewNotifier(cfg config.NotificationConfig, logger *slog.Logger) *Notifier {
	return &Notifier{
		url:    cfg.URL,
		token:  cfg.BearerToken,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "Notifier"),
	}
}

func (n *Notifier) Name() string { return "submission-notification" }

// AfterSubmit posts the submission notice. It runs on the post-commit runner,
// so an error here is logged there and never reaches the applicant.
func (n *Notifier) AfterSubmit(ctx context.Context, loan *application.Loan) error {
	name := fmt.Sprintf("%s %s",
		loan.Data.String(application.SectionPersonalInfo, "firstName"),
		loan.Data.String(application.SectionPersonalInfo, "lastName"))
	body := payload{
		ApplicationType:   "mortgage",
		ApplicantName:     name,
		ApplicantEmail:    loan.Data.String(application.SectionPersonalInfo, "email"),
		ApplicationNumber: loan.ID,
		ViewToken:         loan.ViewToken,
		ApplicationData:   loan.Data,
	}

	if err := n.post(ctx, body); err != nil {
		monitoring.RecordNotification("failure")
		return err
	}
	monitoring.RecordNotification("success")
	n.logger.Info("Submission notification delivered", "loan_id", loan.ID)
	return nil
}

func (n *Notifier) post(ctx context.Context, body payload) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: failed to encode notification: %v", apperrors.ErrInternalServer, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInternalServer, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: notification dispatch failed: %v", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: notify function returned %d: %s", apperrors.ErrUpstream, resp.StatusCode, snippet)
	}
	return nil
}
