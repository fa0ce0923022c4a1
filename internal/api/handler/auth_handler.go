package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"origination-engine/internal/api/handler/dto"
	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/pkg/apperrors"
	"origination-engine/internal/session"
)

type AuthHandler struct {
	vesta    vesta.Client
	sessions *session.Manager
	logger   *slog.Logger
}

func NewAuthHandler(vestaClient vesta.Client, sessions *session.Manager, l *slog.Logger) *AuthHandler {
	if vestaClient == nil || sessions == nil {
		panic("auth handler dependencies cannot be nil")
	}
	return &AuthHandler{
		vesta:    vestaClient,
		sessions: sessions,
		logger:   l.With("component", "AuthHandler"),
	}
}

// BorrowerLogin handles POST /auth/borrower-login: loan number plus ZIP or
// phone-last-4 verification against the servicing system. On success the
// response carries a signed session token embedding the loan snapshot.
// A ZIP mismatch comes back as its own error code so the client resets only
// the verification step.
func (h *AuthHandler) BorrowerLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.BorrowerLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	snap, err := h.vesta.BorrowerLogin(r.Context(), req.LoanNumber, req.ZipCode, req.PhoneLast4)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, apperrors.ErrZipMismatch) && !errors.Is(err, apperrors.ErrUnauthorized) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Borrower login failed", "loan_number", req.LoanNumber, slog.Any("error", err))
		respondError(w, err)
		return
	}

	token, err := h.sessions.Issue(session.BorrowerSession{
		LoanID:      snap.LoanID,
		LoanNumber:  snap.LoanNumber,
		AccessToken: snap.AccessToken,
		Snapshot:    snap,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to issue borrower session", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Borrower logged in", "loan_number", snap.LoanNumber)
	respondJSON(w, http.StatusOK, dto.BorrowerLoginResponse{
		Token: token,
		Loan:  dto.NewLoanSnapshotSummary(snap),
	})
}
