package delivery

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"compressd/logger"
	"compressd/models"
)

// toS3 uploads the output to an S3 object, self-contained with the target's
// own credentials.
func toS3(ctx context.Context, target *models.S3Target, filename string, reader io.Reader) (string, error) {
	if target == nil {
		return "", fmt.Errorf("s3 delivery requested without an s3 target")
	}

	key := path.Join(target.KeyPrefix, filename)

	client := s3.New(s3.Options{
		Region:      target.Region,
		Credentials: credentials.NewStaticCredentialsProvider(target.AccessKey, target.SecretKey, ""),
	})
	uploader := manager.NewUploader(client)

	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(target.Bucket),
		Key:    aws.String(key),
		Body:   reader,
	})
	if err != nil {
		return "", fmt.Errorf("upload object %s to bucket %s: %w", key, target.Bucket, err)
	}

	logger.Infof("uploaded object '%s' to bucket '%s'", key, target.Bucket)
	return fmt.Sprintf("s3://%s/%s", target.Bucket, key), nil
}
