package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"origination-engine/internal/api/handler"
	"origination-engine/internal/api/handler/dto"
	"origination-engine/internal/domain/application"
	"origination-engine/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) LoadDraft(ctx context.Context, borrowerID string) (*application.Loan, error) {
	args := m.Called(ctx, borrowerID)
	if l, ok := args.Get(0).(*application.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationService) GetLoan(ctx context.Context, loanID string) (*application.Loan, error) {
	args := m.Called(ctx, loanID)
	if l, ok := args.Get(0).(*application.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationService) GetByViewToken(ctx context.Context, viewToken string) (*application.Loan, error) {
	args := m.Called(ctx, viewToken)
	if l, ok := args.Get(0).(*application.Loan); ok {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationService) UpdateField(ctx context.Context, loanID string, section application.Section, field string, value any) error {
	return m.Called(ctx, loanID, section, field, value).Error(0)
}

func (m *MockApplicationService) AdvanceStep(ctx context.Context, loanID string) (int, error) {
	args := m.Called(ctx, loanID)
	return args.Int(0), args.Error(1)
}

func (m *MockApplicationService) GoToStep(ctx context.Context, loanID string, step int) (int, error) {
	args := m.Called(ctx, loanID, step)
	return args.Int(0), args.Error(1)
}

func (m *MockApplicationService) SaveAndExit(ctx context.Context, loanID string) error {
	return m.Called(ctx, loanID).Error(0)
}

func (m *MockApplicationService) Submit(ctx context.Context, loanID string) (string, error) {
	args := m.Called(ctx, loanID)
	return args.String(0), args.Error(1)
}

func (m *MockApplicationService) ValidateAll(ctx context.Context, loanID string) (map[application.Section]map[string]string, error) {
	args := m.Called(ctx, loanID)
	if v, ok := args.Get(0).(map[application.Section]map[string]string); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationService) Release(loanID string) {
	m.Called(loanID)
}

func newAppRouter(svc application.ApplicationService) *chi.Mux {
	h := handler.NewApplicationHandler(svc, testLogger)
	r := chi.NewRouter()
	r.Post("/applications/draft", h.LoadDraft)
	r.Route("/applications/{loanID}", func(r chi.Router) {
		r.Get("/", h.GetApplication)
		r.Patch("/fields", h.UpdateField)
		r.Post("/advance", h.AdvanceStep)
		r.Post("/submit", h.Submit)
		r.Get("/validate", h.Validate)
	})
	r.Get("/status/{viewToken}", h.Status)
	return r
}

func TestLoadDraft(t *testing.T) {
	svc := new(MockApplicationService)
	router := newAppRouter(svc)

	loan := &application.Loan{ID: "loan-1", BorrowerID: "borrower-1", Data: application.NewFormData()}
	svc.On("LoadDraft", mock.Anything, "borrower-1").Return(loan, nil)

	body, _ := json.Marshal(dto.LoadDraftRequest{BorrowerID: "borrower-1"})
	req := httptest.NewRequest(http.MethodPost, "/applications/draft", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ApplicationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "loan-1", resp.LoanID)
	assert.Equal(t, application.SectionCount, resp.SectionCount)
}

func TestLoadDraft_EmptyBorrowerID(t *testing.T) {
	svc := new(MockApplicationService)
	router := newAppRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/applications/draft", bytes.NewReader([]byte(`{"borrowerId":""}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "LoadDraft", mock.Anything, mock.Anything)
}

func TestUpdateField(t *testing.T) {
	svc := new(MockApplicationService)
	router := newAppRouter(svc)

	svc.On("UpdateField", mock.Anything, "loan-1", application.SectionPersonalInfo, "firstName", "Dana").Return(nil)

	body := []byte(`{"section":"personalInfo","field":"firstName","value":"Dana"}`)
	req := httptest.NewRequest(http.MethodPatch, "/applications/loan-1/fields", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}

func TestUpdateField_UnknownSection(t *testing.T) {
	svc := new(MockApplicationService)
	router := newAppRouter(svc)

	body := []byte(`{"section":"mystery","field":"x","value":1}`)
	req := httptest.NewRequest(http.MethodPatch, "/applications/loan-1/fields", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateField_AfterSubmissionConflicts(t *testing.T) {
	svc := new(MockApplicationService)
	router := newAppRouter(svc)

	svc.On("UpdateField", mock.Anything, "loan-1", application.SectionPersonalInfo, "firstName", "Dana").
		Return(apperrors.ErrAlreadySubmitted)

	body := []byte(`{"section":"personalInfo","field":"firstName","value":"Dana"}`)
	req := httptest.NewRequest(http.MethodPatch, "/applications/loan-1/fields", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "already_submitted", resp.Error.Code)
}

func TestAdvanceStep(t *testing.T) {
	svc := new(MockApplicationService)
	router := newAppRouter(svc)

	svc.On("AdvanceStep", mock.Anything, "loan-1").Return(3, nil)

	req := httptest.NewRequest(http.MethodPost, "/applications/loan-1/advance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.StepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Step)
}

func TestSubmit(t *testing.T) {
	svc := new(MockApplicationService)
	router := newAppRouter(svc)

	svc.On("Submit", mock.Anything, "loan-1").Return("loan-1", nil)

	req := httptest.NewRequest(http.MethodPost, "/applications/loan-1/submit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Submitted)
}

func TestValidate_ReportsSectionErrors(t *testing.T) {
	svc := new(MockApplicationService)
	router := newAppRouter(svc)

	svc.On("ValidateAll", mock.Anything, "loan-1").Return(map[application.Section]map[string]string{
		application.SectionPersonalInfo: {"email": "Email is required"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/applications/loan-1/validate", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ValidationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Equal(t, "Email is required", resp.Errors["personalInfo"]["email"])
}

func TestStatus_ByViewToken(t *testing.T) {
	svc := new(MockApplicationService)
	router := newAppRouter(svc)

	loan := &application.Loan{ID: "loan-1", Submitted: true, LoanAmount: 350000, Data: application.NewFormData()}
	svc.On("GetByViewToken", mock.Anything, "tok-1").Return(loan, nil)

	req := httptest.NewRequest(http.MethodGet, "/status/tok-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Submitted)
	assert.Equal(t, 350000.0, resp.LoanAmount)
	assert.NotContains(t, rec.Body.String(), `"data"`, "status lookup never exposes the form payload")
}

func TestStatus_UnknownToken(t *testing.T) {
	svc := new(MockApplicationService)
	router := newAppRouter(svc)

	svc.On("GetByViewToken", mock.Anything, "nope").Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/status/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
