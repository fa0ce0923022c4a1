package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"origination-engine/internal/api/handler/dto"
	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/pkg/apperrors"
)

type QuestionHandler struct {
	vesta  vesta.Client
	logger *slog.Logger
}

func NewQuestionHandler(vestaClient vesta.Client, l *slog.Logger) *QuestionHandler {
	if vestaClient == nil {
		panic("vesta client cannot be nil")
	}
	return &QuestionHandler{
		vesta:  vestaClient,
		logger: l.With("component", "QuestionHandler"),
	}
}

// Submit handles POST /questions: a thin relay to the servicing system's
// question endpoint.
func (h *QuestionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.QuestionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	if err := h.vesta.SubmitQuestion(r.Context(), req.LoanNumber, req.Name, req.Email, req.Question); err != nil {
		h.logger.ErrorContext(r.Context(), "Question relay failed", slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}
