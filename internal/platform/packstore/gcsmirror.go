package packstore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"

	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
)

// GCSMirror uploads manifest.json copies into a single flat GCS bucket,
// keyed by pack_id, adapted from the teacher's BucketService.UploadFile
// (here trimmed to the one operation a pack mirror needs: write).
type GCSMirror struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewGCSMirror(ctx context.Context, log *logger.Logger, bucket string) (*GCSMirror, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSMirror{log: log.With("component", "GCSMirror"), client: client, bucket: bucket}, nil
}

func (m *GCSMirror) Upload(packID string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	key := fmt.Sprintf("%s/manifest.json", packID)
	w := m.client.Bucket(m.bucket).Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gcs object %s: %w", key, err)
	}
	return w.Close()
}
