// Package gcs archives generated exports to a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("gcs")

// Archiver implements port.Archiver. It relies on Application Default
// Credentials.
type Archiver struct {
	client *storage.Client
	bucket string
	prefix string
	logger *zap.Logger
}

// NewArchiver opens a storage client for bucket. Objects are written under
// prefix.
func NewArchiver(ctx context.Context, bucket, prefix string, logger *zap.Logger) (*Archiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Archiver{client: client, bucket: bucket, prefix: prefix, logger: logger}, nil
}

// ObjectName places an export under prefix/YYYY/MM/.
func ObjectName(prefix, name string, day time.Time) string {
	return path.Join(strings.Trim(prefix, "/"), day.Format("2006/01"), name)
}

// Archive uploads r and returns the gs:// URI of the stored object.
func (a *Archiver) Archive(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	ctx, span := tracer.Start(ctx, "GCS.Archive")
	defer span.End()

	object := ObjectName(a.prefix, name, time.Now())
	span.SetAttributes(attribute.String("bucket", a.bucket), attribute.String("object", object))

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy export to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		a.logger.Error("gcs: finalize upload failed",
			zap.String("bucket", a.bucket),
			zap.String("object", object),
			zap.Error(err),
		)
		return "", fmt.Errorf("finalize upload: %w", err)
	}

	uri := fmt.Sprintf("gs://%s/%s", a.bucket, object)
	a.logger.Info("export archived", zap.String("uri", uri))
	return uri, nil
}

// Close releases the storage client.
func (a *Archiver) Close() error {
	return a.client.Close()
}
