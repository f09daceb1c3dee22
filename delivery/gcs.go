package delivery

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"compressd/logger"
	"compressd/models"
)

// toGCS uploads the output to a Google Cloud Storage object using the
// target's base64-encoded service account key.
func toGCS(ctx context.Context, target *models.GCSTarget, filename string, reader io.Reader) (string, error) {
	if target == nil {
		return "", fmt.Errorf("gcs delivery requested without a gcs target")
	}

	credsJSON, err := base64.StdEncoding.DecodeString(target.CredentialsJSON)
	if err != nil {
		return "", fmt.Errorf("decode credentials: %w", err)
	}

	client, err := storage.NewClient(ctx, option.WithCredentialsJSON(credsJSON))
	if err != nil {
		return "", fmt.Errorf("storage.NewClient: %w", err)
	}
	defer client.Close()

	object := path.Join(target.ObjectPrefix, filename)
	wc := client.Bucket(target.Bucket).Object(object).NewWriter(ctx)

	if _, err := io.Copy(wc, reader); err != nil {
		return "", fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("Writer.Close: %w", err)
	}

	logger.Infof("uploaded object '%s' to bucket '%s'", object, target.Bucket)
	return fmt.Sprintf("gs://%s/%s", target.Bucket, object), nil
}
