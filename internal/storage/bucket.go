// Package storage is a minimal client for an S3-style object store with
// public buckets (Supabase storage API shape).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Bucket struct {
	baseURL    string
	bucket     string
	token      string
	httpClient *http.Client
}

func NewBucket(baseURL, bucket, token string) *Bucket {
	return &Bucket{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		bucket:  bucket,
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Upload stores data at path inside the bucket and returns the public URL.
func (b *Bucket) Upload(ctx context.Context, path string, contentType string, data []byte) (string, error) {
	url := fmt.Sprintf("%s/object/%s/%s", b.baseURL, b.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	req.Header.Set("Content-Type", contentType)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("storage returned status %d: %s", resp.StatusCode, string(body))
	}

	return b.PublicURL(path), nil
}

// PublicURL returns the unauthenticated URL for an object in the bucket.
func (b *Bucket) PublicURL(path string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", b.baseURL, b.bucket, path)
}
