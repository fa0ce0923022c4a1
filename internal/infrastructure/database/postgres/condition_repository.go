package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"origination-engine/internal/domain/condition"
	"origination-engine/internal/infrastructure/monitoring"
	"origination-engine/internal/pkg/apperrors"
)

const conditionColumns = `id, loan_id, title, description, status, timing, at_fault_users, created_at, updated_at`

type ConditionRepository struct {
	db     DBPool
	logger *slog.Logger
}

func NewConditionRepository(db DBPool, logger *slog.Logger) *ConditionRepository {
	return &ConditionRepository{db: db, logger: logger.With("component", "ConditionRepository")}
}

func (r *ConditionRepository) ListByLoan(ctx context.Context, loanID string) ([]condition.Condition, error) {
	query := `
        SELECT ` + conditionColumns + `
        FROM conditions
        WHERE loan_id = $1
        ORDER BY created_at ASC`

	status := "success"
	startTime := time.Now()
	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		monitoring.RecordDBQuery("ListConditionsByLoan", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to query conditions", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	conditions := make([]condition.Condition, 0)
	for rows.Next() {
		c, scanErr := scanCondition(rows)
		if scanErr != nil {
			monitoring.RecordDBQuery("ListConditionsByLoan", "error", time.Since(startTime))
			r.logger.ErrorContext(ctx, "Failed to scan condition row", "loan_id", loanID, "error", scanErr)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, scanErr)
		}
		conditions = append(conditions, c)
	}
	rowsErr := rows.Err()
	if rowsErr != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("ListConditionsByLoan", status, time.Since(startTime))
	if rowsErr != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, rowsErr)
	}
	return conditions, nil
}

func (r *ConditionRepository) GetByID(ctx context.Context, conditionID string) (*condition.Condition, error) {
	query := `
        SELECT ` + conditionColumns + `
        FROM conditions
        WHERE id = $1`

	status := "success"
	startTime := time.Now()
	c, err := scanCondition(r.db.QueryRow(ctx, query, conditionID))
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetConditionByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get condition", "condition_id", conditionID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return &c, nil
}

// UpdateStatus is compare-and-set on the status column so two uploads
// against the same condition cannot both claim the transition.
func (r *ConditionRepository) UpdateStatus(ctx context.Context, conditionID string, from, to condition.Status) error {
	query := `
        UPDATE conditions
        SET status = $1, updated_at = NOW()
        WHERE id = $2 AND status = $3`

	status := "success"
	startTime := time.Now()
	cmdTag, err := r.db.Exec(ctx, query, to, conditionID, from)
	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("UpdateConditionStatus", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update condition status", "condition_id", conditionID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, lookupErr := r.GetByID(ctx, conditionID); errors.Is(lookupErr, apperrors.ErrNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: condition %s is not in status %s", apperrors.ErrConflict, conditionID, from)
	}

	r.logger.InfoContext(ctx, "Condition status updated", "condition_id", conditionID, "from", from, "to", to)
	return nil
}

func scanCondition(row pgx.Row) (condition.Condition, error) {
	var c condition.Condition
	var parties []byte
	err := row.Scan(
		&c.ID, &c.LoanID, &c.Title, &c.Description, &c.Status, &c.Timing,
		&parties, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return condition.Condition{}, err
	}
	if len(parties) > 0 {
		if err := json.Unmarshal(parties, &c.AtFaultUsers); err != nil {
			return condition.Condition{}, fmt.Errorf("corrupt at_fault_users payload: %w", err)
		}
	}
	return c, nil
}
