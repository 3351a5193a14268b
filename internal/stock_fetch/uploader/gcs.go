// Package uploader persists serialized partitions to Google Cloud Storage.
// Writes to the same object path overwrite, which keeps re-exports
// idempotent. Transport retries are the storage client's concern.
package uploader

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type GCS struct {
	Log    *zap.Logger
	client *storage.Client
	bucket string
}

// NewGCS connects a storage client. credentialsFile may be empty, in which
// case application default credentials are used.
func NewGCS(ctx context.Context, log *zap.Logger, bucket, credentialsFile string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	cli, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("uploader: connect gcs: %w", err)
	}
	return &GCS{Log: log, client: cli, bucket: bucket}, nil
}

// Upload writes payload to gs://{bucket}/{objectPath} and returns that URI.
func (g *GCS) Upload(ctx context.Context, payload []byte, objectPath string) (string, error) {
	w := g.client.Bucket(g.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = "application/octet-stream"

	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("uploader: write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("uploader: commit %s: %w", objectPath, err)
	}

	uri := fmt.Sprintf("gs://%s/%s", g.bucket, objectPath)
	g.Log.Debug("Object uploaded",
		zap.String("uri", uri),
		zap.Int("bytes", len(payload)),
	)
	return uri, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
