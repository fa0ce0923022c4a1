package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"origination-engine/internal/domain/borrower"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
)

type BorrowerRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewBorrowerRepository(db DBPool, logger *slog.Logger) *BorrowerRepository {
	return &BorrowerRepository{db: db, logger: logger.With("component", "BorrowerRepository")}
}

func (r *BorrowerRepository) GetByID(ctx context.Context, borrowerID string) (*borrower.Profile, error) {
	query := `
        SELECT id, email, first_name, last_name, COALESCE(phone, ''), created_at, updated_at
        FROM borrower_profiles
        WHERE id = $1`

	status := "success"
	startTime := time.Now()

	var p borrower.Profile
	err := r.db.QueryRow(ctx, query, borrowerID).Scan(
		&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Phone, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetBorrowerByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get borrower profile", "borrower_id", borrowerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &p, nil
}

func (r *BorrowerRepository) UpsertPhone(ctx context.Context, borrowerID, phone string) error {
	query := `
        INSERT INTO borrower_profiles (id, phone, created_at, updated_at)
        VALUES ($1, $2, NOW(), NOW())
        ON CONFLICT (id) DO UPDATE SET phone = EXCLUDED.phone, updated_at = NOW()`

	status := "success"
	startTime := time.Now()
	_, err := r.db.Exec(ctx, query, borrowerID, phone)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("UpsertBorrowerPhone", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to upsert borrower phone", "borrower_id", borrowerID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}
