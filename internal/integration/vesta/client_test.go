package vesta

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"origination-engine/internal/config"
	"origination-engine/internal/domain/condition"
	"origination-engine/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

func newTestClient(t *testing.T, handler http.HandlerFunc) (Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.VestaConfig{
		BaseURL:      server.URL,
		APIKey:       "api-key-123",
		AnonymousKey: "anon-key",
		Timeout:      5 * time.Second,
	}, testLogger)
	return client, server
}

func TestBorrowerLogin_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/borrowerLogin", r.URL.Path)
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		assert.Equal(t, "api-key-123", r.Header.Get("X-Api-Key"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "1000123", req["loanNumber"])
		assert.Equal(t, "80203", req["zipCode"])

		json.NewEncoder(w).Encode(borrowerLoginResponse{
			Loan: &LoanSnapshot{LoanNumber: "1000123", BorrowerName: "Avery Nguyen", Status: "In Underwriting"},
		})
	})

	snap, err := client.BorrowerLogin(context.Background(), "1000123", "80203", "")
	require.NoError(t, err)
	assert.Equal(t, "Avery Nguyen", snap.BorrowerName)
	assert.Equal(t, "In Underwriting", snap.Status)
}

func TestBorrowerLogin_ZipMismatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(borrowerLoginResponse{ZipMismatch: true})
	})

	_, err := client.BorrowerLogin(context.Background(), "1000123", "99999", "")
	assert.ErrorIs(t, err, apperrors.ErrZipMismatch,
		"zip mismatch must be distinguishable from a generic login failure")
}

func TestBorrowerLogin_Rejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(borrowerLoginResponse{Error: "loan not found"})
	})

	_, err := client.BorrowerLogin(context.Background(), "0000000", "80203", "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestWithBearerToken_OverridesAnonymousKey(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(actionError{})
	})

	ctx := WithBearerToken(context.Background(), "session-token")
	assert.NoError(t, client.UpdateLoan(ctx, "loan-1", map[string]any{"k": "v"}))
}

func TestFetchConditions_DecodesStringAndListParties(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"conditions":[
			{"id":"c1","status":"Open","timing":"PriorToDocs","conditionAtFaultUsers":"Borrower"},
			{"id":"c2","status":"Submitted","timing":"PriorToClosing","conditionAtFaultUsers":["Borrower","Lender"]}
		]}`))
	})

	conditions, err := client.FetchConditions(context.Background(), "loan-1",
		[]condition.Status{condition.StatusOpen, condition.StatusSubmitted})
	require.NoError(t, err)
	require.Len(t, conditions, 2)
	assert.True(t, conditions[0].BorrowerOwned())
	assert.True(t, conditions[1].BorrowerOwned())
}

func TestUploadDocument_Base64EncodesContent(t *testing.T) {
	payload := []byte("fake pdf bytes")
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req uploadDocumentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, base64.StdEncoding.EncodeToString(payload), req.Content)
		assert.Equal(t, "w2.pdf", req.FileName)
		json.NewEncoder(w).Encode(uploadDocumentResponse{DocumentID: "doc-7"})
	})

	docID, err := client.UploadDocument(context.Background(), "loan-1", "c1", "w2.pdf", "application/pdf", payload)
	require.NoError(t, err)
	assert.Equal(t, "doc-7", docID)
}

func TestPost_UpstreamErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.SubmitQuestion(context.Background(), "1000123", "Avery", "a@example.com", "When do I close?")
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}
