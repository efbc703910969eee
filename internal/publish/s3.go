// Package publish mirrors exported artifacts to S3-compatible object storage.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Config selects the bucket and client settings. Empty values fall back to
// the standard AWS config and credential chain.
type Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	CacheControl string
	UsePathStyle bool
}

// objectPutter is the slice of the S3 client the publisher needs.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads artifacts to one bucket.
type S3Publisher struct {
	client objectPutter
	cfg    Config
	logger *slog.Logger
}

// NewS3 creates a publisher using the default AWS configuration chain with
// optional region and profile overrides.
func NewS3(ctx context.Context, cfg Config, logger *slog.Logger) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("publish: missing bucket")
	}
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("publish: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newPublisher(client, cfg, logger), nil
}

func newPublisher(client objectPutter, cfg Config, logger *slog.Logger) *S3Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Publisher{client: client, cfg: cfg, logger: logger}
}

// Publish uploads each file (slash path relative to dir) under the
// configured prefix. The first failed upload stops the run.
func (p *S3Publisher) Publish(ctx context.Context, dir string, files []string) error {
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			return fmt.Errorf("publish: read %s: %w", name, err)
		}
		in := &s3.PutObjectInput{
			Bucket:      aws.String(p.cfg.Bucket),
			Key:         aws.String(p.key(name)),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType(name)),
		}
		if p.cfg.CacheControl != "" {
			in.CacheControl = aws.String(p.cfg.CacheControl)
		}
		if _, err := p.client.PutObject(ctx, in); err != nil {
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) {
				return fmt.Errorf("publish: put %s: %s: %w", name, apiErr.ErrorCode(), err)
			}
			return fmt.Errorf("publish: put %s: %w", name, err)
		}
		p.logger.Debug("publish: uploaded", slog.String("bucket", p.cfg.Bucket), slog.String("key", p.key(name)))
	}
	p.logger.Info("publish: done", slog.String("bucket", p.cfg.Bucket), slog.Int("files", len(files)))
	return nil
}

func (p *S3Publisher) key(name string) string {
	prefix := strings.Trim(p.cfg.Prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}
