package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"origination-engine/internal/api/middleware"
	"origination-engine/internal/domain/dashboard"
	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/pkg/apperrors"
)

type DashboardHandler struct {
	service dashboard.DashboardService
	vesta   vesta.Client
	logger  *slog.Logger
}

func NewDashboardHandler(s dashboard.DashboardService, vestaClient vesta.Client, l *slog.Logger) *DashboardHandler {
	if s == nil {
		panic("dashboard service cannot be nil")
	}
	return &DashboardHandler{
		service: s,
		vesta:   vestaClient,
		logger:  l.With("component", "DashboardHandler"),
	}
}

// resolveSource works out which loan backs this request: the loanID from
// the URL when a local record exists, else the snapshot riding in the
// borrower session. The login flow proves access to exactly one loan, so a
// URL naming any other loan is rejected outright.
func (h *DashboardHandler) resolveSource(r *http.Request) (dashboard.LoanSource, error) {
	loanID := chi.URLParam(r, "loanID")
	var external *vesta.LoanSnapshot
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		external = sess.Snapshot
		if loanID == "" {
			loanID = sess.LoanID
		} else if loanID != sess.LoanID {
			return dashboard.NoSource(), fmt.Errorf("%w: loan %s is not covered by this session", apperrors.ErrForbidden, loanID)
		}
	}
	return h.service.Resolve(r.Context(), loanID, external)
}

// GetDashboard handles GET /dashboard/{loanID}.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	src, err := h.resolveSource(r)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to resolve dashboard source", slog.Any("error", err))
		respondError(w, err)
		return
	}

	view, err := h.service.BuildView(r.Context(), src)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// GetConditions handles GET /dashboard/{loanID}/conditions. The borrowerOnly
// query flag narrows the tabs to borrower-owned items.
func (h *DashboardHandler) GetConditions(w http.ResponseWriter, r *http.Request) {
	src, err := h.resolveSource(r)
	if err != nil {
		respondError(w, err)
		return
	}

	borrowerOnly := r.URL.Query().Get("borrowerOnly") == "true"
	tabs, err := h.service.Conditions(r.Context(), src, borrowerOnly)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to load conditions", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tabs)
}
