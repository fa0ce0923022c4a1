// Package storage uploads borrower documents to the hosted object-storage
// bucket over its REST interface and returns the resulting public URL.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"origination-engine/internal/config"
	"origination-engine/internal/pkg/apperrors"
)

type Uploader interface {
	// Upload stores an object and returns its public URL.
	Upload(ctx context.Context, objectPath, contentType string, content []byte) (string, error)
}

type bucketClient struct {
	baseURL   string
	bucket    string
	apiKey    string
	publicURL string
	client    *http.Client
	logger    *slog.Logger
}

func NewUploader(cfg config.StorageConfig, logger *slog.Logger) Uploader {
	return &bucketClient{
		baseURL:   cfg.BaseURL,
		bucket:    cfg.Bucket,
		apiKey:    cfg.APIKey,
		publicURL: cfg.PublicURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger.With("component", "StorageUploader", "bucket", cfg.Bucket),
	}
}

func (c *bucketClient) Upload(ctx context.Context, objectPath, contentType string, content []byte) (string, error) {
	url := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, objectPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: build upload request: %v", apperrors.ErrInternalServer, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Object upload failed", "path", objectPath, "error", err)
		return "", fmt.Errorf("%w: upload %s: %v", apperrors.ErrUpstream, objectPath, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		c.logger.Error("Object upload rejected", "path", objectPath, "status", resp.StatusCode)
		return "", fmt.Errorf("%w: upload %s returned %d", apperrors.ErrUpstream, objectPath, resp.StatusCode)
	}

	return fmt.Sprintf("%s/object/public/%s/%s", c.publicURL, c.bucket, objectPath), nil
}
