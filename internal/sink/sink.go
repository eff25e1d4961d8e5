// Package sink writes extracted previews to files, stdout or S3.
package sink

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Sink receives output files by name.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
	Close() error
}

// Config holds settings for remote sinks.
type Config struct {
	Region       string
	Endpoint     string
	SkipExisting bool
	Logger       *log.Logger
}

// IsStdout tells whether dest selects standard output.
func IsStdout(dest string) bool { return dest == "-" }

// IsS3 tells whether dest is an s3://bucket/prefix URL.
func IsS3(dest string) bool { return strings.HasPrefix(dest, s3Scheme) }

// New returns a sink for dest: "-" for stdout, s3://bucket/prefix for S3,
// anything else writes local files named by Put.
func New(dest string, cfg Config) (Sink, error) {
	switch {
	case IsStdout(dest):
		return NewWriter(os.Stdout), nil
	case IsS3(dest):
		bucket, prefix, err := ParseS3URL(dest)
		if err != nil {
			return nil, err
		}
		client, err := newS3Client(cfg)
		if err != nil {
			return nil, err
		}
		return NewS3(client, bucket, prefix, cfg), nil
	default:
		return Files{}, nil
	}
}

// Files writes each output to the local path given as its name.
type Files struct{}

// Put writes data to name.
func (Files) Put(_ context.Context, name string, data []byte) error {
	return os.WriteFile(filepath.Clean(name), data, 0o644)
}

// Close is a no-op.
func (Files) Close() error { return nil }

// Writer streams a single output to an io.Writer.
type Writer struct {
	w    io.Writer
	used bool
}

// NewWriter wraps w, typically os.Stdout.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Put writes data, a second call fails.
func (s *Writer) Put(_ context.Context, _ string, data []byte) error {
	if s.used {
		return errors.New("standard output accepts a single output")
	}
	s.used = true
	_, err := s.w.Write(data)
	return err
}

// Close is a no-op.
func (s *Writer) Close() error { return nil }
