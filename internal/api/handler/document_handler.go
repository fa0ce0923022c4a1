package handler

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"origination-engine/internal/api/handler/dto"
	"origination-engine/internal/domain/document"
	"origination-engine/internal/pkg/apperrors"
)

// maxUploadBytes caps a single document upload at 25 MiB, matching the
// storage bucket's object limit.
const maxUploadBytes = 25 << 20

type DocumentHandler struct {
	service document.DocumentService
	logger  *slog.Logger
}

func NewDocumentHandler(s document.DocumentService, l *slog.Logger) *DocumentHandler {
	if s == nil {
		panic("document service cannot be nil")
	}
	return &DocumentHandler{
		service: s,
		logger:  l.With("component", "DocumentHandler"),
	}
}

// Upload handles POST /documents as a multipart form: the file part plus
// loanId and optional conditionId fields.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, fmt.Errorf("%w: invalid multipart payload: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	loanID := r.FormValue("loanId")
	if loanID == "" {
		respondError(w, fmt.Errorf("%w: loanId form field is required", apperrors.ErrInvalidArgument))
		return
	}
	conditionID := r.FormValue("conditionId")

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, fmt.Errorf("%w: file form field is required: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to read uploaded file", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: failed to read upload: %v", apperrors.ErrInternalServer, err))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := h.service.Upload(r.Context(), loanID, conditionID, header.Filename, contentType, content)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Document upload failed", "loan_id", loanID, slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewDocumentResponse(doc))
}

// ListByLoan handles GET /documents/{loanID}.
func (h *DocumentHandler) ListByLoan(w http.ResponseWriter, r *http.Request) {
	loanID := chi.URLParam(r, "loanID")
	if loanID == "" {
		respondError(w, fmt.Errorf("%w: loanID not found in URL path", apperrors.ErrInvalidArgument))
		return
	}

	docs, err := h.service.ListByLoan(r.Context(), loanID)
	if err != nil {
		respondError(w, err)
		return
	}

	responses := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		responses = append(responses, dto.NewDocumentResponse(&docs[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}
