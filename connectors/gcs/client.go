package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"ee-stats/domain/usage"
)

// Client reads snapshot objects from a Google Cloud Storage bucket.
type Client struct {
	bucket  string
	client  *storage.Client
	limiter *rate.Limiter
}

// NewClient creates a GCS client for bucket. Credentials are resolved in this
// order: serviceAccountJSON (if set), Application Default Credentials, then
// anonymous access for public buckets. rps <= 0 disables request pacing.
func NewClient(ctx context.Context, bucket, serviceAccountJSON string, rps float64) (*Client, error) {
	opts, err := clientOptions(ctx, serviceAccountJSON)
	if err != nil {
		return nil, err
	}
	return newClient(ctx, bucket, rps, opts...)
}

func newClient(ctx context.Context, bucket string, rps float64, opts ...option.ClientOption) (*Client, error) {
	sc, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	c := &Client{bucket: bucket, client: sc}
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return c, nil
}

func clientOptions(ctx context.Context, serviceAccountJSON string) ([]option.ClientOption, error) {
	if serviceAccountJSON != "" {
		creds, err := google.CredentialsFromJSON(ctx, []byte(serviceAccountJSON), storage.ScopeReadOnly)
		if err != nil {
			return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil
	}
	creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadOnly)
	if err != nil {
		slog.Info("gcs.auth.anonymous", "reason", err)
		return []option.ClientOption{option.WithoutAuthentication()}, nil
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// Fetch downloads the object at key. A missing object yields usage.ErrNotFound;
// any other failure, a missing bucket included, is returned as is.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	r, err := c.client.Bucket(c.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("gs://%s/%s: %w", c.bucket, key, usage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", c.bucket, key, err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", c.bucket, key, err)
	}
	return b, nil
}

func (c *Client) Close() error { return c.client.Close() }
