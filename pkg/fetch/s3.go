package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pkgstat/pkgstat/internal/logctx"
)

// S3Source fetches Contents indexes from an S3 bucket that mirrors them,
// e.g. an internal cache populated by a nightly sync job. Objects are laid
// out as <prefix>/Contents-<arch>.gz.
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Source creates an S3 source from an s3://bucket/prefix URI using the
// default AWS configuration chain.
func NewS3Source(ctx context.Context, uri string) (*S3Source, error) {
	bucket, prefix, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &S3Source{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// NewS3SourceWithClient creates an S3 source with an existing client
// (useful for testing against a stub).
func NewS3SourceWithClient(client *s3.Client, bucket, prefix string) *S3Source {
	return &S3Source{client: client, bucket: bucket, prefix: prefix}
}

// Open streams the compressed index object for arch.
func (s *S3Source) Open(ctx context.Context, arch string) (io.ReadCloser, error) {
	key := ContentsFilename(arch)
	if s.prefix != "" {
		key = strings.TrimRight(s.prefix, "/") + "/" + key
	}

	log := logctx.FromContext(ctx)
	log.Info().Str("bucket", s.bucket).Str("key", key).Msg("fetching Contents index from S3")

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object s3://%s/%s: %w", s.bucket, key, err)
	}
	return resp.Body, nil
}

// ParseS3URI parses an S3 URI (s3://bucket or s3://bucket/prefix) into
// bucket and prefix components.
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", errors.New("invalid S3 URI: must start with s3://")
	}

	path := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		return "", "", errors.New("invalid S3 URI: missing bucket name")
	}
	bucket = parts[0]
	if len(parts) == 2 {
		prefix = strings.Trim(parts[1], "/")
	}
	return bucket, prefix, nil
}
