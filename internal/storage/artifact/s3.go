package artifact

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"srql-engine/internal/common"
	"srql-engine/internal/config"
)

// S3Store keeps artifacts in an S3 bucket under an optional prefix.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store loads the default AWS config. A custom endpoint supports
// S3-compatible object stores like MinIO.
func NewS3Store(ctx context.Context, cfg config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, common.NewError(common.ErrInvalidInput, "s3 bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to load AWS config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Put uploads the artifact.
func (s *S3Store) Put(ctx context.Context, key string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(key)),
		Body:        body,
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to store artifact", err)
	}
	return nil
}

// Get downloads the artifact.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, common.NewError(common.ErrArtifactNotFound, "artifact not found: "+key)
		}
		return nil, common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to fetch artifact", err)
	}
	return output.Body, nil
}

// Delete removes the artifact.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(key)),
	})
	if err != nil {
		return common.NewErrorWithCause(common.ErrArtifactUnavailable, "failed to delete artifact", err)
	}
	return nil
}

// Health issues a cheap list call against the bucket.
func (s *S3Store) Health(ctx context.Context) error {
	_, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return common.NewErrorWithCause(common.ErrArtifactUnavailable, "s3 health check failed", err)
	}
	return nil
}

func (s *S3Store) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}
