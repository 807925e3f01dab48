// Package publish uploads built artifacts to S3.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/chazu/hullform/pkg/ctxlog"
)

// ErrNoBucket is returned when no destination bucket is configured.
var ErrNoBucket = errors.New("publish: no bucket configured")

// ObjectPutter is the part of the S3 client Publish needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Target is an S3 destination.
type Target struct {
	Bucket string
	Prefix string
}

// NewClient builds an S3 client from the default AWS credential chain.
// An empty region leaves the chain's region in place.
func NewClient(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("publish: load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Key is the object key of a file under the target prefix.
func (t Target) Key(file string) string {
	return path.Join(t.Prefix, filepath.Base(file))
}

// contentType guesses a MIME type from the file extension.
func contentType(file string) string {
	switch filepath.Ext(file) {
	case ".FCStd":
		return "application/zip"
	case ".step":
		return "model/step"
	}
	if ct := mime.TypeByExtension(filepath.Ext(file)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Publish uploads every file of files that exists. Missing files are
// skipped; it returns the keys written.
func Publish(ctx context.Context, client ObjectPutter, t Target, files []string) ([]string, error) {
	if t.Bucket == "" {
		return nil, ErrNoBucket
	}
	logger := ctxlog.FromContext(ctx)

	var keys []string
	for _, file := range files {
		f, err := os.Open(file)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("artifact not built, skipping", "path", file)
			continue
		}
		if err != nil {
			return keys, fmt.Errorf("publish: %w", err)
		}

		key := t.Key(file)
		_, err = client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(t.Bucket),
			Key:         aws.String(key),
			Body:        f,
			ContentType: aws.String(contentType(file)),
		})
		f.Close()
		if err != nil {
			return keys, fmt.Errorf("publish: put s3://%s/%s: %w", t.Bucket, key, err)
		}
		logger.Info("published", "path", file, "bucket", t.Bucket, "key", key)
		keys = append(keys, key)
	}
	return keys, nil
}
