package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
)

const autosaveTimeout = 15 * time.Second

// Saver is the persistence path the store writes through. The store never
// talks to the database directly.
type Saver interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
	SubmitSnapshot(ctx context.Context, snap Snapshot) error
}

// Store holds the live state of one in-flight application: section data,
// wizard step, persistence status and the autosave debouncer. All methods
// are safe for concurrent use, though in practice a single borrower session
// drives it.
type Store struct {
	mu         sync.Mutex
	loanID     string
	borrowerID string
	viewToken  string
	data       FormData
	step       int
	submitted  bool
	saving     bool
	lastSaved  time.Time

	saver      Saver
	debouncer  *Debouncer
	logger     *slog.Logger
	postSubmit func(Snapshot)
}

func NewStore(loan *Loan, saver Saver, quiet time.Duration, logger *slog.Logger) *Store {
	if loan == nil || saver == nil {
		panic("store requires a loan and a saver")
	}
	data := loan.Data
	if data == nil {
		data = NewFormData()
	}
	s := &Store{
		loanID:     loan.ID,
		borrowerID: loan.BorrowerID,
		viewToken:  loan.ViewToken,
		data:       data.Clone(),
		step:       clampStep(loan.Progress),
		submitted:  loan.Submitted,
		saver:      saver,
		logger:     logger.With("component", "FormStore", "loan_id", loan.ID),
	}
	s.debouncer = NewDebouncer(quiet, s.autosave)
	return s
}

// SetPostSubmit registers the fire-and-forget side effects that run after a
// successful submission. Their failures never surface to the submitter.
func (s *Store) SetPostSubmit(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postSubmit = fn
}

// UpdateField merges one field into one section and schedules a debounced
// autosave. The employment income total is recomputed inside SetField
// whenever one of its constituents changes.
func (s *Store) UpdateField(section Section, field string, value any) error {
	if !ValidSection(section) {
		return fmt.Errorf("%w: unknown section %q", apperrors.ErrInvalidArgument, section)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return apperrors.ErrAlreadySubmitted
	}
	s.data.SetField(section, field, value)
	s.debouncer.Trigger()
	return nil
}

// autosave is the debouncer callback. It sends the full current snapshot;
// a failure is logged and counted, never surfaced - the next edit schedules
// another attempt.
func (s *Store) autosave() {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return
	}
	s.saving = true
	snap := s.snapshotLocked()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
	defer cancel()

	err := s.saver.SaveSnapshot(ctx, snap)

	s.mu.Lock()
	s.saving = false
	if err == nil {
		s.lastSaved = time.Now()
	}
	s.mu.Unlock()

	if err != nil {
		monitoring.RecordAutosave("failure")
		s.logger.Error("Autosave failed", "error", err)
		return
	}
	monitoring.RecordAutosave("success")
}

// AdvanceStep persists immediately (cancelling any pending autosave) before
// moving the index forward, so the server always reflects the furthest
// reached step. A failed save is logged but does not block the advance.
func (s *Store) AdvanceStep(ctx context.Context) error {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return apperrors.ErrAlreadySubmitted
	}
	s.debouncer.Cancel()
	snap := s.snapshotLocked()
	snap.Step = clampStep(s.step + 1)
	s.mu.Unlock()

	if err := s.saver.SaveSnapshot(ctx, snap); err != nil {
		s.logger.Error("Save before step advance failed", "error", err)
	} else {
		s.markSaved()
	}

	s.mu.Lock()
	s.step = clampStep(s.step + 1)
	s.mu.Unlock()
	return nil
}

func (s *Store) GoBack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = clampStep(s.step - 1)
}

func (s *Store) GoToStep(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = clampStep(n)
}

// SaveAndExit flushes the current state synchronously. Unlike autosave, its
// failure is surfaced to the caller.
func (s *Store) SaveAndExit(ctx context.Context) error {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return apperrors.ErrAlreadySubmitted
	}
	s.debouncer.Cancel()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.saver.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	s.markSaved()
	return nil
}

// Submit freezes the application. The submitted flag only commits locally
// once persistence succeeds; nothing in the public interface un-submits.
// Post-submit side effects run detached and their failures are swallowed:
// a failed notification must not make the user re-submit a real application.
func (s *Store) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.submitted {
		s.mu.Unlock()
		return apperrors.ErrAlreadySubmitted
	}
	s.debouncer.Cancel()
	snap := s.snapshotLocked()
	snap.Submitted = true
	postSubmit := s.postSubmit
	s.mu.Unlock()

	if err := s.saver.SubmitSnapshot(ctx, snap); err != nil {
		monitoring.RecordSubmission("failure")
		return err
	}

	s.mu.Lock()
	s.submitted = true
	s.lastSaved = time.Now()
	s.mu.Unlock()
	s.debouncer.Close()

	monitoring.RecordSubmission("success")
	if postSubmit != nil {
		postSubmit(snap)
	}
	return nil
}

// Close releases the autosave timer. Pending saves are dropped, not flushed:
// a torn-down store must never write stale state.
func (s *Store) Close() {
	s.debouncer.Close()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		LoanID:     s.loanID,
		BorrowerID: s.borrowerID,
		ViewToken:  s.viewToken,
		Data:       s.data.Clone(),
		Step:       s.step,
		Submitted:  s.submitted,
	}
}

func (s *Store) markSaved() {
	s.mu.Lock()
	s.lastSaved = time.Now()
	s.mu.Unlock()
}

func (s *Store) LoanID() string { return s.loanID }

func (s *Store) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Store) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

func (s *Store) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

func (s *Store) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

func clampStep(n int) int {
	if n < 0 {
		return 0
	}
	if n > SectionCount-1 {
		return SectionCount - 1
	}
	return n
}
