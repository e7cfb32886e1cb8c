package media

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"instaclone/backend/pkg/config"
	"instaclone/backend/pkg/logger"
)

// Store normalizes images and hands them to an Uploader. It satisfies the
// social service's media port.
type Store struct {
	normalizer *Normalizer
	uploader   Uploader
	logger     *zap.Logger
}

// NewStore creates a media store
func NewStore(normalizer *Normalizer, uploader Uploader) *Store {
	return &Store{
		normalizer: normalizer,
		uploader:   uploader,
		logger:     logger.Get(),
	}
}

// NewStoreFromConfig picks the backend named by cfg.MediaBackend. The disk
// uploader is returned too (nil for S3) so the server can serve its files.
func NewStoreFromConfig(cfg *config.Config) (*Store, *DiskUploader, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendS3:
		up, err := NewS3Uploader(cfg.S3Region, cfg.S3Bucket, cfg.S3PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return NewStore(NewNormalizer(), up), nil, nil
	case config.MediaBackendLocal:
		up, err := NewDiskUploader(cfg.MediaDir, cfg.MediaBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return NewStore(NewNormalizer(), up), up, nil
	default:
		return nil, nil, fmt.Errorf("unknown media backend: %s", cfg.MediaBackend)
	}
}

// Store normalizes data and uploads it under a fresh key
func (s *Store) Store(ctx context.Context, data []byte, contentType string) (string, error) {
	start := time.Now()

	normalized, err := s.normalizer.Normalize(data)
	if err != nil {
		return "", err
	}

	key := uuid.New().String() + ".jpg"
	url, err := s.uploader.Put(ctx, key, normalized, "image/jpeg")
	if err != nil {
		return "", err
	}

	s.logger.Debug("Stored image",
		zap.String("key", key),
		zap.String("source_type", contentType),
		zap.Int("source_bytes", len(data)),
		zap.Int("stored_bytes", len(normalized)),
		zap.Duration("duration", time.Since(start)),
	)
	return url, nil
}
