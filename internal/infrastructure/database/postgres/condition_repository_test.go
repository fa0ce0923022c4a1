package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"origination-engine/internal/domain/condition"
	"origination-engine/internal/pkg/apperrors"
)

func conditionRows(t *testing.T) *pgxmock.Rows {
	t.Helper()
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "loan_id", "title", "description", "status", "timing",
		"at_fault_users", "created_at", "updated_at",
	}).
		AddRow("c1", "loan-1", "Provide W-2", "Most recent two years", condition.StatusOpen,
			condition.TimingPriorToClosing, []byte(`["Borrower"]`), now, now).
		AddRow("c2", "loan-1", "Appraisal review", "", condition.StatusCleared,
			condition.TimingPriorToApproval, []byte(`"Lender"`), now, now)
}

func TestListConditionsByLoan_DecodesPartiesEitherShape(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewConditionRepository(mockPool, testLogger)

	mockPool.ExpectQuery("FROM conditions").
		WithArgs("loan-1").
		WillReturnRows(conditionRows(t))

	conditions, err := repo.ListByLoan(context.Background(), "loan-1")
	require.NoError(t, err)
	require.Len(t, conditions, 2)
	assert.True(t, conditions[0].BorrowerOwned())
	assert.False(t, conditions[1].BorrowerOwned())
}

func TestUpdateConditionStatus_CompareAndSet(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewConditionRepository(mockPool, testLogger)

	mockPool.ExpectExec("UPDATE conditions").
		WithArgs(condition.StatusSubmitted, "c1", condition.StatusOpen).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateStatus(context.Background(), "c1", condition.StatusOpen, condition.StatusSubmitted)
	assert.NoError(t, err)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestUpdateConditionStatus_WrongCurrentStatusConflicts(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewConditionRepository(mockPool, testLogger)

	mockPool.ExpectExec("UPDATE conditions").
		WithArgs(condition.StatusSubmitted, "c1", condition.StatusOpen).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mockPool.ExpectQuery("FROM conditions").
		WithArgs("c1").
		WillReturnRows(conditionRows(t))

	err := repo.UpdateStatus(context.Background(), "c1", condition.StatusOpen, condition.StatusSubmitted)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
