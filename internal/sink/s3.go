package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const s3Scheme = "s3://"

// S3 uploads outputs to a bucket, keyed by prefix and the base name of the output.
type S3 struct {
	client       s3iface.S3API
	bucket       string
	prefix       string
	skipExisting bool
	logger       *log.Logger
}

// NewS3 creates an S3 sink over client.
func NewS3(client s3iface.S3API, bucket, prefix string, cfg Config) *S3 {
	return &S3{
		client:       client,
		bucket:       bucket,
		prefix:       strings.Trim(prefix, "/"),
		skipExisting: cfg.SkipExisting,
		logger:       cfg.Logger,
	}
}

// ParseS3URL splits s3://bucket/prefix.
func ParseS3URL(dest string) (bucket, prefix string, err error) {
	u, err := url.Parse(dest)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid S3 destination %q, expected s3://bucket/prefix", dest)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

func newS3Client(cfg Config) (s3iface.S3API, error) {
	awsCfg := &aws.Config{}
	if cfg.Region != "" {
		awsCfg.Region = aws.String(cfg.Region)
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return s3.New(sess), nil
}

// Key returns the object key used for an output name.
func (s *S3) Key(name string) string {
	return path.Join(s.prefix, filepath.Base(name))
}

// Put uploads data, skipping keys that already exist when configured to.
func (s *S3) Put(ctx context.Context, name string, data []byte) error {
	key := s.Key(name)
	if s.skipExisting {
		_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			s.logf("s3://%s/%s already exists, skipping", s.bucket, key)
			return nil
		}
	}

	out, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("upload s3://%s/%s: %w", s.bucket, key, err)
	}
	if out == nil {
		return errors.New("empty upload response")
	}
	s.logf("uploaded s3://%s/%s (%d bytes) ETag: %s", s.bucket, key, len(data), aws.StringValue(out.ETag))
	return nil
}

// Close is a no-op.
func (s *S3) Close() error { return nil }

func (s *S3) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
