package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"

	"origination-engine/internal/domain/application"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var errMsgFormat = "%w: %w"

const loanColumns = `id, borrower_id, data, progress, submitted, view_token, loan_amount, loan_type, property_address, created_at, updated_at`

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) CreateDraft(ctx context.Context, borrowerID string, initial application.FormData) (*application.Loan, error) {
	if initial == nil {
		initial = application.NewFormData()
	}
	payload, err := json.Marshal(initial)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode form data: %w", apperrors.ErrInternalServer, err)
	}

	draft := &application.Loan{
		ID:         uuid.NewString(),
		BorrowerID: borrowerID,
		Data:       initial,
		ViewToken:  uuid.NewString(),
	}
	draft.DeriveSummary()

	query := `
        INSERT INTO loans (id, borrower_id, data, progress, submitted, view_token, loan_amount, loan_type, property_address, created_at, updated_at)
        VALUES ($1, $2, $3, 0, FALSE, $4, $5, $6, $7, NOW(), NOW())
        RETURNING created_at, updated_at`

	status := "success"
	startTime := time.Now()
	err = r.db.QueryRow(ctx, query,
		draft.ID, borrowerID, payload, draft.ViewToken,
		draft.LoanAmount, draft.LoanType, draft.PropertyAddress,
	).Scan(&draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("CreateDraft", status, time.Since(startTime))

	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: the partial unique index caught a concurrent draft insert.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.WarnContext(ctx, "Concurrent draft creation detected", "borrower_id", borrowerID)
			return nil, apperrors.ErrAlreadyExists
		}
		r.logger.ErrorContext(ctx, "Failed to insert draft", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert draft: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Draft created in DB", "loan_id", draft.ID, "borrower_id", borrowerID)
	return draft, nil
}

func (r *LoanRepository) FindDraftByBorrower(ctx context.Context, borrowerID string) (*application.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE borrower_id = $1 AND NOT submitted
        ORDER BY created_at DESC
        LIMIT 1`
	return r.queryOne(ctx, "FindDraftByBorrower", query, borrowerID)
}

func (r *LoanRepository) GetByID(ctx context.Context, loanID string) (*application.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE id = $1`
	return r.queryOne(ctx, "GetByID", query, loanID)
}

func (r *LoanRepository) GetByViewToken(ctx context.Context, viewToken string) (*application.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE view_token = $1`
	return r.queryOne(ctx, "GetByViewToken", query, viewToken)
}

func (r *LoanRepository) queryOne(ctx context.Context, queryName, query string, arg any) (*application.Loan, error) {
	status := "success"
	startTime := time.Now()

	var l application.Loan
	var payload []byte
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&l.ID, &l.BorrowerID, &payload, &l.Progress, &l.Submitted, &l.ViewToken,
		&l.LoanAmount, &l.LoanType, &l.PropertyAddress, &l.CreatedAt, &l.UpdatedAt,
	)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery(queryName, status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to load loan", "query", queryName, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	if err := json.Unmarshal(payload, &l.Data); err != nil {
		r.logger.ErrorContext(ctx, "Corrupt form payload in loans row", "loan_id", l.ID, "error", err)
		return nil, fmt.Errorf("%w: corrupt form payload: %w", apperrors.ErrDatabase, err)
	}
	return &l, nil
}

func (r *LoanRepository) SaveSnapshot(ctx context.Context, loan *application.Loan) error {
	payload, err := json.Marshal(loan.Data)
	if err != nil {
		return fmt.Errorf("%w: failed to encode form data: %w", apperrors.ErrInternalServer, err)
	}

	query := `
        UPDATE loans
        SET data = $1, progress = $2, loan_amount = $3, loan_type = $4, property_address = $5, updated_at = NOW()
        WHERE id = $6 AND NOT submitted`

	status := "success"
	startTime := time.Now()
	cmdTag, err := r.db.Exec(ctx, query,
		payload, loan.Progress, loan.LoanAmount, loan.LoanType, loan.PropertyAddress, loan.ID,
	)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("SaveSnapshot", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to save snapshot", "loan_id", loan.ID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Either the loan is gone or it was submitted out from under us.
		existing, lookupErr := r.GetByID(ctx, loan.ID)
		if lookupErr == nil && existing.Submitted {
			return apperrors.ErrAlreadySubmitted
		}
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) MarkSubmitted(ctx context.Context, loanID string) error {
	query := `
        UPDATE loans
        SET submitted = TRUE, updated_at = NOW()
        WHERE id = $1 AND NOT submitted`

	status := "success"
	startTime := time.Now()
	cmdTag, err := r.db.Exec(ctx, query, loanID)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("MarkSubmitted", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to mark loan submitted", "loan_id", loanID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		existing, lookupErr := r.GetByID(ctx, loanID)
		if lookupErr != nil {
			return lookupErr
		}
		if existing.Submitted {
			return apperrors.ErrAlreadySubmitted
		}
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Loan marked submitted", "loan_id", loanID)
	return nil
}

func (r *LoanRepository) FindFunnelCapture(ctx context.Context, borrowerID string) (application.FormData, error) {
	query := `
        SELECT data
        FROM mortgage_applications
        WHERE borrower_id = $1
        ORDER BY created_at DESC
        LIMIT 1`

	status := "success"
	startTime := time.Now()

	var payload []byte
	err := r.db.QueryRow(ctx, query, borrowerID).Scan(&payload)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("FindFunnelCapture", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to load funnel capture", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	var data application.FormData
	if err := json.Unmarshal(payload, &data); err != nil {
		r.logger.WarnContext(ctx, "Corrupt funnel capture payload, skipping pre-fill", "borrower_id", borrowerID, "error", err)
		return nil, apperrors.ErrNotFound
	}
	return data, nil
}
