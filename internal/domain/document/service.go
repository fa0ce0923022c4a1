package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"origination-engine/internal/domain/condition"
	"origination-engine/internal/event"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/integration/storage"
	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/pkg/apperrors"
)

type DocumentService interface {
	// Upload stores the file, records the document and, when the upload
	// satisfies a condition, moves that condition Open -> Submitted. The
	// servicing-system sync afterwards is best-effort.
	Upload(ctx context.Context, loanID, conditionID, fileName, contentType string, content []byte) (*Document, error)

	ListByLoan(ctx context.Context, loanID string) ([]Document, error)
}

type documentServiceImpl struct {
	repo       Repository
	conditions condition.Repository
	uploader   storage.Uploader
	vesta      vesta.Client
	events     event.EventPublisher
	logger     *slog.Logger
}

// NewDocumentService wires the upload pipeline. events may be nil when no
// broker is configured; uploads then skip the published event.
func NewDocumentService(
	repo Repository,
	conditions condition.Repository,
	uploader storage.Uploader,
	vestaClient vesta.Client,
	events event.EventPublisher,
	logger *slog.Logger,
) DocumentService {
	return &documentServiceImpl{
		repo:       repo,
		conditions: conditions,
		uploader:   uploader,
		vesta:      vestaClient,
		events:     events,
		logger:     logger.With("component", "DocumentService"),
	}
}

func (s *documentServiceImpl) Upload(ctx context.Context, loanID, conditionID, fileName, contentType string, content []byte) (*Document, error) {
	if loanID == "" || fileName == "" {
		return nil, fmt.Errorf("%w: loan id and file name are required", apperrors.ErrInvalidArgument)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty file", apperrors.ErrInvalidArgument)
	}

	objectPath := fmt.Sprintf("%s/%s%s", loanID, uuid.NewString(), path.Ext(fileName))
	publicURL, err := s.uploader.Upload(ctx, objectPath, contentType, content)
	if err != nil {
		monitoring.RecordDocumentUpload("failure")
		return nil, err
	}

	doc := &Document{
		ID:          uuid.NewString(),
		LoanID:      loanID,
		ConditionID: conditionID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   int64(len(content)),
		PublicURL:   publicURL,
	}
	created, err := s.repo.Create(ctx, doc)
	if err != nil {
		monitoring.RecordDocumentUpload("failure")
		return nil, fmt.Errorf("%w: failed to record document: %v", apperrors.ErrInternalServer, err)
	}

	if conditionID != "" {
		if err := s.conditions.UpdateStatus(ctx, conditionID, condition.StatusOpen, condition.StatusSubmitted); err != nil {
			// The document exists either way; a condition already under
			// review is not an upload failure.
			if !errors.Is(err, apperrors.ErrConflict) {
				s.logger.Error("Failed to transition condition after upload", "condition_id", conditionID, "error", err)
			}
		}
	}

	// Mirror the upload into the servicing system. Its failure never undoes
	// a completed upload.
	if _, err := s.vesta.UploadDocument(ctx, loanID, conditionID, fileName, contentType, content); err != nil {
		s.logger.Warn("Servicing-system document sync failed", "loan_id", loanID, "error", err)
	}

	if s.events != nil {
		uploaded := event.DocumentUploadedEvent{
			LoanID:      loanID,
			DocumentID:  created.ID,
			ConditionID: conditionID,
			FileName:    fileName,
			Timestamp:   time.Now().UTC(),
		}
		if err := s.events.PublishDocumentUploaded(ctx, uploaded); err != nil {
			s.logger.Warn("Failed to publish document uploaded event", "loan_id", loanID, "error", err)
		}
	}

	monitoring.RecordDocumentUpload("success")
	s.logger.Info("Document uploaded", "loan_id", loanID, "document_id", created.ID, "size_bytes", created.SizeBytes)
	return created, nil
}

func (s *documentServiceImpl) ListByLoan(ctx context.Context, loanID string) ([]Document, error) {
	docs, err := s.repo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list documents: %v", apperrors.ErrInternalServer, err)
	}
	return docs, nil
}
