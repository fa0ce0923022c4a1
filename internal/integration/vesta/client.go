// Package vesta is the HTTP client for the external loan-servicing system.
// Every operation is a POST of a JSON body to a named action endpoint,
// authenticated with a bearer token (the caller's session token when one
// exists, the anonymous key otherwise) plus a static API-key header.
package vesta

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"origination-engine/internal/config"
	"origination-engine/internal/domain/condition"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
)

const (
	actionBorrowerLogin   = "borrowerLogin"
	actionCreateLoan      = "createLoan"
	actionUpdateLoan      = "updateLoan"
	actionFetchConditions = "fetchConditions"
	actionUploadDocument  = "uploadDocument"
	actionSubmitQuestion  = "submitQuestion"
)

// Client is the full servicing-system surface this application touches.
type Client interface {
	// BorrowerLogin verifies loan number plus ZIP or phone-last-4. A ZIP
	// mismatch comes back as apperrors.ErrZipMismatch so the caller can
	// reset just the verification step.
	BorrowerLogin(ctx context.Context, loanNumber, zipCode, phoneLast4 string) (*LoanSnapshot, error)

	CreateLoan(ctx context.Context, loanNumber string, data map[string]any) (string, error)

	UpdateLoan(ctx context.Context, loanID string, data map[string]any) error

	FetchConditions(ctx context.Context, loanID string, statuses []condition.Status) ([]condition.Condition, error)

	UploadDocument(ctx context.Context, loanID, conditionID, fileName, contentType string, content []byte) (string, error)

	SubmitQuestion(ctx context.Context, loanNumber, name, email, question string) error
}

type httpClient struct {
	baseURL      string
	apiKey       string
	anonymousKey string
	client       *http.Client
	logger       *slog.Logger
}

func NewClient(cfg config.VestaConfig, logger *slog.Logger) Client {
	return &httpClient{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		anonymousKey: cfg.AnonymousKey,
		client:       &http.Client{Timeout: cfg.Timeout},
		logger:       logger.With("component", "VestaClient"),
	}
}

func (c *httpClient) BorrowerLogin(ctx context.Context, loanNumber, zipCode, phoneLast4 string) (*LoanSnapshot, error) {
	req := borrowerLoginRequest{LoanNumber: loanNumber, ZipCode: zipCode, PhoneLast4: phoneLast4}

	var resp borrowerLoginResponse
	if err := c.post(ctx, actionBorrowerLogin, req, &resp); err != nil {
		return nil, err
	}
	if resp.ZipMismatch {
		c.logger.Info("Borrower login zip mismatch", "loan_number", loanNumber)
		return nil, apperrors.ErrZipMismatch
	}
	if resp.Error != "" || resp.Loan == nil {
		return nil, fmt.Errorf("%w: borrower login rejected: %s", apperrors.ErrUnauthorized, resp.Error)
	}
	resp.Loan.AccessToken = resp.AccessToken
	return resp.Loan, nil
}

func (c *httpClient) CreateLoan(ctx context.Context, loanNumber string, data map[string]any) (string, error) {
	var resp createLoanResponse
	if err := c.post(ctx, actionCreateLoan, createLoanRequest{LoanNumber: loanNumber, Data: data}, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: createLoan: %s", apperrors.ErrUpstream, resp.Error)
	}
	return resp.LoanID, nil
}

func (c *httpClient) UpdateLoan(ctx context.Context, loanID string, data map[string]any) error {
	var resp actionError
	if err := c.post(ctx, actionUpdateLoan, updateLoanRequest{LoanID: loanID, Data: data}, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%w: updateLoan: %s", apperrors.ErrUpstream, resp.Error)
	}
	return nil
}

func (c *httpClient) FetchConditions(ctx context.Context, loanID string, statuses []condition.Status) ([]condition.Condition, error) {
	req := fetchConditionsRequest{LoanID: loanID}
	for _, s := range statuses {
		req.Statuses = append(req.Statuses, string(s))
	}

	var resp fetchConditionsResponse
	if err := c.post(ctx, actionFetchConditions, req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: fetchConditions: %s", apperrors.ErrUpstream, resp.Error)
	}
	return resp.Conditions, nil
}

func (c *httpClient) UploadDocument(ctx context.Context, loanID, conditionID, fileName, contentType string, content []byte) (string, error) {
	req := uploadDocumentRequest{
		LoanID:      loanID,
		ConditionID: conditionID,
		FileName:    fileName,
		ContentType: contentType,
		Content:     base64.StdEncoding.EncodeToString(content),
	}

	var resp uploadDocumentResponse
	if err := c.post(ctx, actionUploadDocument, req, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%w: uploadDocument: %s", apperrors.ErrUpstream, resp.Error)
	}
	return resp.DocumentID, nil
}

func (c *httpClient) SubmitQuestion(ctx context.Context, loanNumber, name, email, question string) error {
	var resp actionError
	req := submitQuestionRequest{LoanNumber: loanNumber, Name: name, Email: email, Question: question}
	if err := c.post(ctx, actionSubmitQuestion, req, &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("%w: submitQuestion: %s", apperrors.ErrUpstream, resp.Error)
	}
	return nil
}

// bearerTokenKey carries a session-derived bearer token through the context.
type bearerTokenKey struct{}

// WithBearerToken attaches a session token to use instead of the anonymous
// key for calls made within ctx.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

func (c *httpClient) bearerToken(ctx context.Context) string {
	if token, ok := ctx.Value(bearerTokenKey{}).(string); ok && token != "" {
		return token
	}
	return c.anonymousKey
}

func (c *httpClient) post(ctx context.Context, action string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal %s request: %v", apperrors.ErrInternalServer, action, err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build %s request: %v", apperrors.ErrInternalServer, action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.bearerToken(ctx))
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		monitoring.RecordVestaCall(action, "error")
		c.logger.Error("Vesta call failed", "action", action, "error", err)
		return fmt.Errorf("%w: %s: %v", apperrors.ErrUpstream, action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		monitoring.RecordVestaCall(action, "error")
		return fmt.Errorf("%w: read %s response: %v", apperrors.ErrUpstream, action, err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		monitoring.RecordVestaCall(action, "unauthorized")
		return fmt.Errorf("%w: %s returned %d", apperrors.ErrUnauthorized, action, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		monitoring.RecordVestaCall(action, "error")
		c.logger.Error("Vesta call returned error status", "action", action, "status", resp.StatusCode)
		return fmt.Errorf("%w: %s returned %d", apperrors.ErrUpstream, action, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			monitoring.RecordVestaCall(action, "error")
			return fmt.Errorf("%w: decode %s response: %v", apperrors.ErrUpstream, action, err)
		}
	}
	monitoring.RecordVestaCall(action, "success")
	return nil
}
