// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	cfgpkg "github.com/staranto/fontslim/internal/config"
)

const (
	immutableCacheControl = "public, max-age=31536000, immutable"
	defaultCacheControl   = "public, max-age=3600"
)

var hashedNameRe = regexp.MustCompile(`\.[0-9a-f]{8}\.[a-z0-9]+$`)

var contentTypes = map[string]string{
	".woff2": "font/woff2",
	".woff":  "font/woff",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".css":   "text/css; charset=utf-8",
}

// Uploader is the subset of the S3 client used for publishing.
type Uploader interface {
	PutObject(ctx context.Context, in *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
}

// Object describes one uploaded file.
type Object struct {
	File         string `json:"file"`
	Key          string `json:"key"`
	ContentType  string `json:"contentType"`
	CacheControl string `json:"cacheControl"`
	Size         int64  `json:"size"`
}

// Publisher uploads build artifacts to a bucket.
type Publisher struct {
	client Uploader
	bucket string
	prefix string
	logger log.Interface
}

// New builds a Publisher with an S3 client configured from cfg.
func New(ctx context.Context, cfg cfgpkg.PublishConfig, opts ...Option) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("publish: bucket is required")
	}
	if cfg.Profile != "" {
		opts = append(opts, WithProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		opts = append(opts, WithRegion(cfg.Region))
	}

	awsCfg, err := LoadAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	client := NewS3(awsCfg, WithEndpoint(cfg.Endpoint, cfg.PathStyle))
	return NewWithClient(client, cfg), nil
}

// NewWithClient builds a Publisher around an existing client.
func NewWithClient(client Uploader, cfg cfgpkg.PublishConfig) *Publisher {
	return &Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: log.Log,
	}
}

// Key returns the object key for file.
func (p *Publisher) Key(file string) string {
	if p.prefix == "" {
		return filepath.Base(file)
	}
	return path.Join(p.prefix, filepath.Base(file))
}

// Publish uploads every file in order and stops at the first failure.
func (p *Publisher) Publish(ctx context.Context, files []string) ([]Object, error) {
	objects := make([]Object, 0, len(files))
	for _, file := range files {
		obj, err := p.put(ctx, file)
		if err != nil {
			return objects, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (p *Publisher) put(ctx context.Context, file string) (Object, error) {
	f, err := os.Open(file)
	if err != nil {
		return Object{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Object{}, err
	}

	obj := Object{
		File:         file,
		Key:          p.Key(file),
		ContentType:  ContentType(file),
		CacheControl: CacheControl(file),
		Size:         info.Size(),
	}

	_, err = p.client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:        awsv2.String(p.bucket),
		Key:           awsv2.String(obj.Key),
		Body:          f,
		ContentLength: awsv2.Int64(obj.Size),
		ContentType:   awsv2.String(obj.ContentType),
		CacheControl:  awsv2.String(obj.CacheControl),
	})
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload %s to s3://%s/%s: %w", file, p.bucket, obj.Key, err)
	}

	p.logger.Debugf("uploaded %s to s3://%s/%s", file, p.bucket, obj.Key)
	return obj, nil
}

// ContentType returns the MIME type for a published file.
func ContentType(file string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(file))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// CacheControl returns a long-lived immutable policy for content hashed
// names and a short one for everything else.
func CacheControl(file string) string {
	if hashedNameRe.MatchString(filepath.Base(file)) {
		return immutableCacheControl
	}
	return defaultCacheControl
}
