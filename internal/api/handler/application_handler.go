package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"origination-engine/internal/api/handler/dto"
	"origination-engine/internal/domain/application"
	"origination-engine/internal/pkg/apperrors"
)

type ApplicationHandler struct {
	service application.ApplicationService
	logger  *slog.Logger
}

func NewApplicationHandler(s application.ApplicationService, l *slog.Logger) *ApplicationHandler {
	if s == nil {
		panic("application service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &ApplicationHandler{
		service: s,
		logger:  l.With("component", "ApplicationHandler"),
	}
}

func getLoanIDFromURL(r *http.Request) (string, error) {
	loanID := chi.URLParam(r, "loanID")
	if loanID == "" {
		return "", fmt.Errorf("%w: loanID not found in URL path", apperrors.ErrInvalidArgument)
	}
	return loanID, nil
}

// LoadDraft handles POST /applications/draft. It returns the borrower's
// current draft, creating one when none exists.
func (h *ApplicationHandler) LoadDraft(w http.ResponseWriter, r *http.Request) {
	var req dto.LoadDraftRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	loan, err := h.service.LoadDraft(r.Context(), req.BorrowerID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to load draft", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewApplicationResponse(loan))
}

// GetApplication handles GET /applications/{loanID}.
func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	loan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get application", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewApplicationResponse(loan))
}

// UpdateField handles PATCH /applications/{loanID}/fields. The write lands
// in memory immediately; persistence happens on the autosave timer.
func (h *ApplicationHandler) UpdateField(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateFieldRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.service.UpdateField(r.Context(), loanID, application.Section(req.Section), req.Field, req.Value); err != nil {
		h.logger.WarnContext(r.Context(), "Field update rejected", "loan_id", loanID, slog.Any("error", err))
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AdvanceStep handles POST /applications/{loanID}/advance.
func (h *ApplicationHandler) AdvanceStep(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	step, err := h.service.AdvanceStep(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.StepResponse{Step: step})
}

// GoToStep handles POST /applications/{loanID}/step.
func (h *ApplicationHandler) GoToStep(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.GoToStepRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	step, err := h.service.GoToStep(r.Context(), loanID, req.Step)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.StepResponse{Step: step})
}

// SaveAndExit handles POST /applications/{loanID}/save. Unlike autosave,
// a failure here surfaces to the caller.
func (h *ApplicationHandler) SaveAndExit(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.SaveAndExit(r.Context(), loanID); err != nil {
		h.logger.ErrorContext(r.Context(), "Save-and-exit failed", "loan_id", loanID, slog.Any("error", err))
		respondError(w, err)
		return
	}
	h.service.Release(loanID)

	w.WriteHeader(http.StatusNoContent)
}

// Submit handles POST /applications/{loanID}/submit.
func (h *ApplicationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	submittedID, err := h.service.Submit(r.Context(), loanID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Submission failed", "loan_id", loanID, slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Application submitted", "loan_id", submittedID)
	respondJSON(w, http.StatusOK, dto.SubmitResponse{LoanID: submittedID, Submitted: true})
}

// Validate handles GET /applications/{loanID}/validate.
func (h *ApplicationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, err)
		return
	}

	errs, err := h.service.ValidateAll(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewValidationResponse(errs))
}

// Status handles GET /status/{viewToken}: the unauthenticated read-only
// lookup linked from the submission notification email.
func (h *ApplicationHandler) Status(w http.ResponseWriter, r *http.Request) {
	viewToken := chi.URLParam(r, "viewToken")
	if viewToken == "" {
		respondError(w, fmt.Errorf("%w: viewToken not found in URL path", apperrors.ErrInvalidArgument))
		return
	}

	loan, err := h.service.GetByViewToken(r.Context(), viewToken)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewStatusResponse(loan))
}
