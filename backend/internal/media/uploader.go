package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// Uploader writes an object under key and returns its public URL
type Uploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ============================================================================
// S3
// ============================================================================

// S3Uploader stores objects in an S3 bucket
type S3Uploader struct {
	uploader      *s3manager.Uploader
	bucket        string
	publicBaseURL string
}

// NewS3Uploader creates an uploader using the default AWS credential chain
func NewS3Uploader(region, bucket, publicBaseURL string) (*S3Uploader, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}

	return &S3Uploader{
		uploader:      s3manager.NewUploader(sess),
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Put uploads data and returns the object URL
func (u *S3Uploader) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	out, err := u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	if u.publicBaseURL != "" {
		return u.publicBaseURL + "/" + key, nil
	}
	return out.Location, nil
}

// ============================================================================
// Local disk
// ============================================================================

// DiskUploader stores objects under a directory served at baseURL
type DiskUploader struct {
	dir     string
	baseURL string
}

// NewDiskUploader creates the directory if needed
func NewDiskUploader(dir, baseURL string) (*DiskUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir %s: %w", dir, err)
	}
	return &DiskUploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the directory files are written to
func (u *DiskUploader) Dir() string {
	return u.dir
}

// Put writes data to dir/key and returns baseURL/key
func (u *DiskUploader) Put(ctx context.Context, key string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(u.dir, filepath.Base(key))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return u.baseURL + "/" + filepath.Base(key), nil
}
