package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"origination-engine/internal/config"
	"origination-engine/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

func newTestUploader(serverURL string) Uploader {
	return NewUploader(config.StorageConfig{
		BaseURL:   serverURL,
		Bucket:    "documents",
		APIKey:    "test-key",
		PublicURL: "https://cdn.example.com",
		Timeout:   5 * time.Second,
	}, testLogger)
}

func TestUpload(t *testing.T) {
	var (
		gotPath        string
		gotContentType string
		gotAuth        string
		gotBody        []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	uploader := newTestUploader(server.URL)
	url, err := uploader.Upload(context.Background(), "loan-1/paystub.pdf", "application/pdf", []byte("pdf-bytes"))

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/object/public/documents/loan-1/paystub.pdf", url)
	assert.Equal(t, "/object/documents/loan-1/paystub.pdf", gotPath)
	assert.Equal(t, "application/pdf", gotContentType)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, []byte("pdf-bytes"), gotBody)
}

func TestUpload_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	uploader := newTestUploader(server.URL)
	_, err := uploader.Upload(context.Background(), "loan-1/paystub.pdf", "application/pdf", []byte("x"))

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}

func TestUpload_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	uploader := newTestUploader(server.URL)
	_, err := uploader.Upload(context.Background(), "loan-1/paystub.pdf", "application/pdf", []byte("x"))

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}
