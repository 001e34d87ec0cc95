// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package reporter // import "go.opentelemetry.io/hookprofiler/reporter"

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// S3Putter is the subset of the S3 client used for uploading.
type S3Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput,
		optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config selects where reports are uploaded to.
type S3Config struct {
	Bucket string
	// Prefix is prepended to the object key.
	Prefix string
	// Endpoint overrides the service endpoint, e.g. for S3 compatible stores.
	Endpoint string
	Region   string
	// PathStyle selects path-style instead of virtual-hosted bucket addressing.
	PathStyle bool

	Format   Format
	Compress bool
}

// S3Sink uploads every report as one object named after its session.
type S3Sink struct {
	client S3Putter
	cfg    S3Config
}

// NewS3Sink creates an S3Sink using the default AWS credential chain.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("no S3 bucket configured")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %v", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Region != "" {
			o.Region = cfg.Region
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return NewS3SinkWithClient(client, cfg), nil
}

// NewS3SinkWithClient creates an S3Sink uploading through client.
func NewS3SinkWithClient(client S3Putter, cfg S3Config) *S3Sink {
	return &S3Sink{client: client, cfg: cfg}
}

// Key returns the object key for r.
func (s *S3Sink) Key(r *Report) string {
	name := r.SessionID.String() + s.cfg.Format.Extension()
	if s.cfg.Compress {
		name += ".zst"
	}
	return path.Join(s.cfg.Prefix, name)
}

// Send uploads r.
func (s *S3Sink) Send(ctx context.Context, r *Report) error {
	body, err := encode(r, s.cfg.Format, s.cfg.Compress)
	if err != nil {
		return fmt.Errorf("failed to encode report: %v", err)
	}
	key := s.Key(r)
	contentType := "application/octet-stream"
	switch {
	case s.cfg.Compress:
		contentType = "application/zstd"
	case s.cfg.Format == FormatJSON:
		contentType = "application/json"
	case s.cfg.Format == FormatText:
		contentType = "text/plain"
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.cfg.Bucket, key, err)
	}
	log.Infof("Uploaded report of session %v to s3://%s/%s", r.SessionID, s.cfg.Bucket, key)
	return nil
}
