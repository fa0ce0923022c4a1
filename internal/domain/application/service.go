package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nyaruka/phonenumbers"

	"origination-engine/internal/domain/borrower"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
	"origination-engine/internal/postcommit"
)

// SubmitHook is a best-effort side effect fired after a successful
// submission: notification dispatch, servicing-system sync, event publish.
// Hook failures are logged by the post-commit runner and never surface to
// the submitter.
type SubmitHook interface {
	Name() string
	AfterSubmit(ctx context.Context, loan *Loan) error
}

type ApplicationService interface {
	// LoadDraft returns the borrower's current draft, creating one (progress
	// 0, not submitted, pre-filled from any funnel capture) when none exists.
	LoadDraft(ctx context.Context, borrowerID string) (*Loan, error)

	GetLoan(ctx context.Context, loanID string) (*Loan, error)

	GetByViewToken(ctx context.Context, viewToken string) (*Loan, error)

	UpdateField(ctx context.Context, loanID string, section Section, field string, value any) error

	// AdvanceStep saves immediately, then moves the wizard forward. Returns
	// the new step index.
	AdvanceStep(ctx context.Context, loanID string) (int, error)

	GoToStep(ctx context.Context, loanID string, step int) (int, error)

	SaveAndExit(ctx context.Context, loanID string) error

	// Submit freezes the application and fires the registered post-submit
	// hooks. Returns the loan id.
	Submit(ctx context.Context, loanID string) (string, error)

	// ValidateAll maps every section to its field errors. Sections with no
	// errors are omitted.
	ValidateAll(ctx context.Context, loanID string) (map[Section]map[string]string, error)

	// Release tears down the in-memory store for a loan, cancelling any
	// pending autosave.
	Release(loanID string)
}

type applicationServiceImpl struct {
	repo     Repository
	profiles borrower.ProfileRepository
	runner   *postcommit.Runner
	hooks    []SubmitHook
	quiet    time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

func NewApplicationService(
	repo Repository,
	profiles borrower.ProfileRepository,
	runner *postcommit.Runner,
	hooks []SubmitHook,
	quiet time.Duration,
	logger *slog.Logger,
) ApplicationService {
	return &applicationServiceImpl{
		repo:     repo,
		profiles: profiles,
		runner:   runner,
		hooks:    hooks,
		quiet:    quiet,
		logger:   logger.With("component", "ApplicationService"),
		stores:   make(map[string]*Store),
	}
}

func (s *applicationServiceImpl) LoadDraft(ctx context.Context, borrowerID string) (*Loan, error) {
	if borrowerID == "" {
		return nil, fmt.Errorf("%w: borrower id is required", apperrors.ErrInvalidArgument)
	}

	draft, err := s.repo.FindDraftByBorrower(ctx, borrowerID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Error("Failed to look up draft", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf("%w: failed to load draft: %v", apperrors.ErrInternalServer, err)
	}

	// No draft yet: create one immediately so a loan id exists before the
	// user types anything. Pre-fill from a marketing-funnel capture when one
	// is on file; its absence is the normal case, not an error.
	initial := NewFormData()
	if captured, capErr := s.repo.FindFunnelCapture(ctx, borrowerID); capErr == nil {
		initial = captured
	} else if !errors.Is(capErr, apperrors.ErrNotFound) {
		s.logger.Warn("Funnel capture lookup failed, starting blank", "borrower_id", borrowerID, "error", capErr)
	}
	s.prefillContact(ctx, borrowerID, initial)

	created, err := s.repo.CreateDraft(ctx, borrowerID, initial)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			// Lost the creation race against a concurrent first load; the
			// winner's draft is the one to hand back.
			winner, findErr := s.repo.FindDraftByBorrower(ctx, borrowerID)
			if findErr == nil {
				s.logger.Info("Draft creation raced, returning existing draft", "loan_id", winner.ID, "borrower_id", borrowerID)
				return winner, nil
			}
			s.logger.Error("Failed to load draft after creation race", "borrower_id", borrowerID, "error", findErr)
			return nil, fmt.Errorf("%w: failed to load draft: %v", apperrors.ErrInternalServer, findErr)
		}
		s.logger.Error("Failed to create draft", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf("%w: failed to create draft: %v", apperrors.ErrInternalServer, err)
	}
	monitoring.RecordDraftCreated()
	s.logger.Info("Draft loan created", "loan_id", created.ID, "borrower_id", borrowerID)
	return created, nil
}

// prefillContact copies the account's contact details into empty fields of a
// fresh draft. Best-effort; a missing profile is the normal case for funnel
// leads.
func (s *applicationServiceImpl) prefillContact(ctx context.Context, borrowerID string, data FormData) {
	profile, err := s.profiles.GetByID(ctx, borrowerID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("Profile lookup failed, skipping prefill", "borrower_id", borrowerID, "error", err)
		}
		return
	}
	fill := func(field, value string) {
		if value != "" && data.String(SectionPersonalInfo, field) == "" {
			data.SetField(SectionPersonalInfo, field, value)
		}
	}
	fill("firstName", profile.FirstName)
	fill("lastName", profile.LastName)
	fill("email", profile.Email)
	fill("phone", profile.Phone)
}

func (s *applicationServiceImpl) GetLoan(ctx context.Context, loanID string) (*Loan, error) {
	loan, err := s.repo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: loan %s not found", apperrors.ErrNotFound, loanID)
		}
		return nil, fmt.Errorf("%w: failed to get loan %s: %v", apperrors.ErrInternalServer, loanID, err)
	}
	return loan, nil
}

func (s *applicationServiceImpl) GetByViewToken(ctx context.Context, viewToken string) (*Loan, error) {
	if viewToken == "" {
		return nil, fmt.Errorf("%w: view token is required", apperrors.ErrInvalidArgument)
	}
	loan, err := s.repo.GetByViewToken(ctx, viewToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("%w: view token lookup failed: %v", apperrors.ErrInternalServer, err)
	}
	return loan, nil
}

func (s *applicationServiceImpl) UpdateField(ctx context.Context, loanID string, section Section, field string, value any) error {
	store, err := s.storeFor(ctx, loanID)
	if err != nil {
		return err
	}
	return store.UpdateField(section, field, value)
}

func (s *applicationServiceImpl) AdvanceStep(ctx context.Context, loanID string) (int, error) {
	store, err := s.storeFor(ctx, loanID)
	if err != nil {
		return 0, err
	}
	if err := store.AdvanceStep(ctx); err != nil {
		return store.Step(), err
	}
	return store.Step(), nil
}

func (s *applicationServiceImpl) GoToStep(ctx context.Context, loanID string, step int) (int, error) {
	store, err := s.storeFor(ctx, loanID)
	if err != nil {
		return 0, err
	}
	store.GoToStep(step)
	return store.Step(), nil
}

func (s *applicationServiceImpl) SaveAndExit(ctx context.Context, loanID string) error {
	store, err := s.storeFor(ctx, loanID)
	if err != nil {
		return err
	}
	return store.SaveAndExit(ctx)
}

func (s *applicationServiceImpl) Submit(ctx context.Context, loanID string) (string, error) {
	store, err := s.storeFor(ctx, loanID)
	if err != nil {
		return "", err
	}
	if err := store.Submit(ctx); err != nil {
		return "", err
	}
	s.logger.Info("Application submitted", "loan_id", loanID)
	return loanID, nil
}

func (s *applicationServiceImpl) ValidateAll(ctx context.Context, loanID string) (map[Section]map[string]string, error) {
	store, err := s.storeFor(ctx, loanID)
	if err != nil {
		return nil, err
	}
	snap := store.Snapshot()

	result := map[Section]map[string]string{}
	for _, section := range SectionOrder {
		if errs := ValidateSection(section, snap.Data); len(errs) > 0 {
			result[section] = errs
		}
	}
	return result, nil
}

func (s *applicationServiceImpl) Release(loanID string) {
	s.mu.Lock()
	store, ok := s.stores[loanID]
	if ok {
		delete(s.stores, loanID)
	}
	s.mu.Unlock()
	if ok {
		store.Close()
	}
}

// storeFor returns the live store for a loan, materializing one from the
// persisted record on first touch.
func (s *applicationServiceImpl) storeFor(ctx context.Context, loanID string) (*Store, error) {
	s.mu.Lock()
	if store, ok := s.stores[loanID]; ok {
		s.mu.Unlock()
		return store, nil
	}
	s.mu.Unlock()

	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if store, ok := s.stores[loanID]; ok {
		return store, nil
	}
	store := NewStore(loan, s, s.quiet, s.logger)
	store.SetPostSubmit(s.dispatchSubmitHooks)
	s.stores[loanID] = store
	return store, nil
}

// SaveSnapshot implements Saver. It writes the full snapshot and then
// best-effort propagates the applicant's phone to their profile record.
func (s *applicationServiceImpl) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	loan := &Loan{
		ID:         snap.LoanID,
		BorrowerID: snap.BorrowerID,
		Data:       snap.Data,
		Progress:   snap.Step,
		Submitted:  snap.Submitted,
	}
	loan.DeriveSummary()

	if err := s.repo.SaveSnapshot(ctx, loan); err != nil {
		return err
	}

	s.propagatePhone(ctx, snap)
	return nil
}

// SubmitSnapshot implements Saver for the terminal write.
func (s *applicationServiceImpl) SubmitSnapshot(ctx context.Context, snap Snapshot) error {
	if err := s.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	return s.repo.MarkSubmitted(ctx, snap.LoanID)
}

// propagatePhone mirrors the personalInfo phone onto the borrower profile.
// Failures here are logged only; a profile hiccup must not fail a save.
func (s *applicationServiceImpl) propagatePhone(ctx context.Context, snap Snapshot) {
	raw := snap.Data.String(SectionPersonalInfo, "phone")
	if raw == "" {
		return
	}
	phone := normalizePhone(raw)
	if err := s.profiles.UpsertPhone(ctx, snap.BorrowerID, phone); err != nil {
		s.logger.Warn("Failed to propagate phone to borrower profile", "borrower_id", snap.BorrowerID, "error", err)
	}
}

// normalizePhone formats a US phone in E.164 when it parses; otherwise it is
// stored as typed.
func normalizePhone(raw string) string {
	parsed, err := phonenumbers.Parse(raw, "US")
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return raw
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

func (s *applicationServiceImpl) dispatchSubmitHooks(snap Snapshot) {
	loan := &Loan{
		ID:         snap.LoanID,
		BorrowerID: snap.BorrowerID,
		ViewToken:  snap.ViewToken,
		Data:       snap.Data,
		Progress:   snap.Step,
		Submitted:  true,
	}
	loan.DeriveSummary()

	tasks := make([]postcommit.Task, 0, len(s.hooks))
	for _, hook := range s.hooks {
		h := hook
		tasks = append(tasks, postcommit.Task{
			Name: h.Name(),
			Run: func(ctx context.Context) error {
				return h.AfterSubmit(ctx, loan)
			},
		})
	}
	s.runner.Dispatch(tasks...)
}
