package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// S3Store writes snapshot blobs to an S3 (or S3-compatible) bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store loads the default AWS config chain (env vars, shared config,
// instance profile) and targets bucket. endpoint overrides the default
// AWS endpoint resolution when non-empty, for S3-compatible backends.
func NewS3Store(ctx context.Context, bucket, region, endpoint string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	log.Info().Str("bucket", bucket).Msg("object store connected")
	return &S3Store{client: client, bucket: bucket}, nil
}

func (s *S3Store) Kind() string { return "s3" }

func (s *S3Store) PutSnapshot(ctx context.Context, key string, body []byte, meta map[string]string) error {
	metadata := make(map[string]string, len(meta))
	for k, v := range meta {
		metadata[k] = v
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:     aws.String(key),
		Body:    bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("s3 put snapshot: %w", err)
	}
	return nil
}

func (s *S3Store) HealthCheck(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("s3 bucket not reachable: %w", err)
	}
	return nil
}
