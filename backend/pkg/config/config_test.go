package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "instaclone/backend/pkg/errors"
)

func setRequired(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://localhost:7687")
	t.Setenv("MONGO_URL", "mongodb://localhost:27017")
	t.Setenv("SECRET_KEY", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "local", cfg.MediaBackend)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_MissingSecretIsFatal(t *testing.T) {
	setRequired(t)
	t.Setenv("SECRET_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))
}

func TestLoad_MissingDatabaseIsFatal(t *testing.T) {
	setRequired(t)
	t.Setenv("NEO4J_URI", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEO4J_URI")
}

func TestValidate_S3NeedsBucket(t *testing.T) {
	setRequired(t)
	t.Setenv("MEDIA_BACKEND", "s3")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_BUCKET")

	t.Setenv("S3_BUCKET", "instaclone-media")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "instaclone-media", cfg.S3Bucket)
}

func TestValidate_UnknownMediaBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("MEDIA_BACKEND", "cloudinary")

	_, err := Load()
	assert.Error(t, err)
}
