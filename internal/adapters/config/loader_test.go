package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pico/internal/adapters/config"
	"go.trai.ch/pico/internal/core/domain"
	"go.trai.ch/pico/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func createFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path
}

func newLoader(t *testing.T) (*config.Loader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	return config.NewLoader(mockLogger), mockLogger
}

func TestLoader_Load_Defaults(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	path := createFile(t, rootDir, domain.ConfigFileName, "version: \"1\"\n")

	cfg, err := loader.Load(rootDir, "")
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, rootDir, cfg.Root)
	assert.Equal(t, domain.DefaultInclude(), cfg.Include)
	assert.Equal(t, domain.DefaultCapacity, cfg.Capacity)
	assert.Equal(t, domain.DefaultGCInterval, cfg.GCInterval)
	assert.Equal(t, domain.DefaultDebounce, cfg.Debounce)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoader_Load_AllFields(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, `
version: "1"
root: ./schema
include:
  - "*.graphqls"
capacity: 64
gcInterval: 2s
metricsAddr: 127.0.0.1:9464
debounce: 10ms
`)

	cfg, err := loader.Load(rootDir, "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(rootDir, "schema"), cfg.Root)
	assert.Equal(t, []string{"*.graphqls"}, cfg.Include)
	assert.Equal(t, 64, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.GCInterval)
	assert.Equal(t, "127.0.0.1:9464", cfg.MetricsAddr)
	assert.Equal(t, 10*time.Millisecond, cfg.Debounce)
}

func TestLoader_Load_DiscoversParent(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, "version: \"1\"\n")
	nested := filepath.Join(rootDir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

	cfg, err := loader.Load(nested, "")
	require.NoError(t, err)
	assert.Equal(t, rootDir, cfg.Root)
}

func TestLoader_Load_ExplicitPath(t *testing.T) {
	loader, _ := newLoader(t)
	rootDir := t.TempDir()
	createFile(t, rootDir, "configs/custom.yaml", "version: \"1\"\nroot: ..\n")

	cfg, err := loader.Load(rootDir, filepath.Join("configs", "custom.yaml"))
	require.NoError(t, err)
	assert.Equal(t, rootDir, cfg.Root)
}

func TestLoader_Load_MissingVersionWarns(t *testing.T) {
	loader, mockLogger := newLoader(t)
	mockLogger.EXPECT().Warn(gomock.Any()).Times(1)

	rootDir := t.TempDir()
	createFile(t, rootDir, domain.ConfigFileName, "include: [\"*.gql\"]\n")

	cfg, err := loader.Load(rootDir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"*.gql"}, cfg.Include)
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectedErr error
	}{
		{
			name:        "unsupported version",
			content:     "version: \"2\"\n",
			expectedErr: domain.ErrUnsupportedVersion,
		},
		{
			name:        "malformed yaml",
			content:     "version: [\n",
			expectedErr: domain.ErrConfigParseFailed,
		},
		{
			name:        "bad pattern",
			content:     "version: \"1\"\ninclude: [\"[\"]\n",
			expectedErr: domain.ErrInvalidPattern,
		},
		{
			name:        "zero capacity",
			content:     "version: \"1\"\ncapacity: 0\n",
			expectedErr: domain.ErrInvalidCapacity,
		},
		{
			name:        "bad duration",
			content:     "version: \"1\"\ngcInterval: soon\n",
			expectedErr: domain.ErrInvalidDuration,
		},
		{
			name:        "negative debounce",
			content:     "version: \"1\"\ndebounce: -1s\n",
			expectedErr: domain.ErrInvalidDuration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _ := newLoader(t)
			rootDir := t.TempDir()
			createFile(t, rootDir, domain.ConfigFileName, tt.content)

			cfg, err := loader.Load(rootDir, "")
			require.Error(t, err)
			require.ErrorContains(t, err, tt.expectedErr.Error())
			assert.Nil(t, cfg)
		})
	}
}

func TestLoader_Load_NotFound(t *testing.T) {
	loader, _ := newLoader(t)

	_, err := loader.Load(t.TempDir(), "")
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrConfigNotFound.Error())
}

func TestLoader_Load_ExplicitPathMissing(t *testing.T) {
	loader, _ := newLoader(t)

	_, err := loader.Load(t.TempDir(), "nope.yaml")
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrConfigReadFailed.Error())
}
