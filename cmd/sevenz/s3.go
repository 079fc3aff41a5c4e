package main

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/vqhuy/sevenz"
	"github.com/vqhuy/sevenz/s3reader"
)

// parseS3URI splits s3://bucket/key into its parts.
func parseS3URI(name string) (bucket, key string, ok bool) {
	rest, ok := strings.CutPrefix(name, "s3://")
	if !ok {
		return "", "", false
	}

	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// openArchive opens a local file or, for s3:// URIs, a remote object through
// ranged GetObject so listing never downloads the whole archive.
func openArchive(ctx context.Context, name string) (*sevenz.Reader, error) {
	bucket, key, ok := parseS3URI(name)
	if !ok {
		return sevenz.Open(name, sevenz.WithPassword(opts.Password))
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config error: %w", err)
	}

	src, err := s3reader.New(ctx, s3.NewFromConfig(cfg), bucket, key)
	if err != nil {
		return nil, err
	}

	return sevenz.OpenReaderAt(src, src.Size(), path.Base(key), sevenz.WithPassword(opts.Password))
}
