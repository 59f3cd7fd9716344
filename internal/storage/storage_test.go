package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/folio/folio/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestLocal_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "projects")
	l, err := NewLocal(dir, "/uploads/projects/", testLogger())
	require.NoError(t, err)

	url, err := l.Save(context.Background(), "123-shot.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/projects/123-shot.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "123-shot.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocal_SaveStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, "/uploads", testLogger())
	require.NoError(t, err)

	url, err := l.Save(context.Background(), "../../etc/evil.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/evil.png", url)
	assert.FileExists(t, filepath.Join(dir, "evil.png"))
}

func TestLocal_SaveCanceled(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "/uploads", testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Save(ctx, "a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_DefaultsToLocal(t *testing.T) {
	s, err := New(context.Background(), &config.StorageConfig{
		Driver:       config.StorageLocal,
		LocalDir:     t.TempDir(),
		PublicPrefix: "/uploads",
	}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &Local{}, s)
}
