// Package storage uploads generated artifacts (migration script,
// definitions snapshot) to an S3-compatible bucket so other environments
// can pick them up without access to the machine that ran the pipeline.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/umadb/affinity/internal/util"
)

// ArtifactStore wraps an S3 client and a target bucket/prefix.
type ArtifactStore struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewArtifactStore builds an artifact store from the AWS_* environment,
// or returns nil when no bucket is configured. A nil store is valid and
// simply skips uploads.
func NewArtifactStore(ctx context.Context) *ArtifactStore {
	bucket := util.GetEnv("AWS_BUCKET")
	if bucket == "" {
		return nil
	}

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(util.GetEnv("AWS_REGION")),
		config.WithBaseEndpoint(util.GetEnv("AWS_ENDPOINT")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			util.GetEnv("AWS_ACCESS_KEY"),
			util.GetEnv("AWS_SECRET_KEY"),
			"",
		)),
	)
	if err != nil {
		return nil
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &ArtifactStore{
		client: client,
		bucket: bucket,
		prefix: util.GetEnvString("AWS_PREFIX", "affinity"),
	}
}

// UploadFile uploads a local artifact under the store's prefix, keyed by
// its base name, and returns the object key.
func (a *ArtifactStore) UploadFile(ctx context.Context, localPath string, contentType string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact %q: %w", localPath, err)
	}

	key := path.Join(a.prefix, path.Base(localPath))
	err = util.RetryErrWithContext(ctx, 3, func(ctx context.Context) error {
		_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact to S3: %w", err)
	}

	return key, nil
}
