package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitWithFile_WritesJSONToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	require.NoError(t, InitWithFile("production", path))
	t.Cleanup(func() { Logger = nil })

	Get().Info("post created", zap.String("post_id", "p1"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"post created"`)
	assert.Contains(t, string(data), `"post_id":"p1"`)
}

func TestGet_FallsBackWhenUninitialized(t *testing.T) {
	Logger = nil
	assert.NotNil(t, Get())
}
