package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"origination-engine/internal/integration/vesta"
	"origination-engine/internal/pkg/apperrors"
)

func TestIssueAndParseRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.Issue(BorrowerSession{
		LoanID:      "loan-9",
		LoanNumber:  "ML-2024-0042",
		AccessToken: "vesta-bearer",
		Snapshot: &vesta.LoanSnapshot{
			LoanNumber:   "ML-2024-0042",
			BorrowerName: "Dana Whitfield",
			Status:       "In Underwriting",
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sess, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "loan-9", sess.LoanID)
	assert.Equal(t, "ML-2024-0042", sess.LoanNumber)
	assert.Equal(t, "vesta-bearer", sess.AccessToken)
	require.NotNil(t, sess.Snapshot)
	assert.Equal(t, "In Underwriting", sess.Snapshot.Status)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	token, err := m.Issue(BorrowerSession{LoanID: "loan-9"})
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issued, err := NewManager("secret-a", time.Hour).Issue(BorrowerSession{LoanID: "loan-9"})
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).Parse(issued)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewManager("test-secret", time.Hour).Parse("not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}
