package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't
// already exist, so re-running an archive step never clobbers a prior upload.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName string, content io.Reader, logger *zap.Logger) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, content); err != nil {
		_ = writer.Close()
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			logger.Info("Object already exists, skipping upload.", zap.String("object", objectName))
			return nil // Not a failure in an idempotent archive step.
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			logger.Info("Object already exists, skipping upload.", zap.String("object", objectName))
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// ArchiveFile uploads a local file (the completed ledger) to
// gs://<bucket>/<executionID>/<basename>. Returns the object URI.
func ArchiveFile(ctx context.Context, client *storage.Client, bucketName, executionID, path string, logger *zap.Logger) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for archiving: %w", path, err)
	}
	defer f.Close()

	objectName := strings.TrimLeft(fmt.Sprintf("%s/%s", executionID, filepath.Base(path)), "/")
	bucket := client.Bucket(bucketName)
	if err := SaveToGCSAtomically(ctx, bucket, objectName, f, logger); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", bucketName, objectName), nil
}
