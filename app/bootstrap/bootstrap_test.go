package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/address-completer/app/config"
	"github.com/address-completer/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	appPath := writeFile(t, dir, "app.yaml", "app:\n  port: \"9000\"\namap:\n  key: from-file\n")
	parserPath := writeFile(t, dir, "parser.yaml", "parser_version: v7\ncache:\n  backend: memory\n")

	t.Setenv("AMAP_KEY", "from-env")
	t.Setenv("PARSER_VERSION", "")

	settings, err := LoadSettings(appPath, parserPath)
	require.NoError(t, err)
	assert.Equal(t, "9000", settings.Port)
	assert.Equal(t, "from-env", settings.AmapKey)
	assert.Equal(t, "address_completer", settings.MongoDBName)
	assert.Equal(t, "v7", config.C.ParserVersion)
}

func TestLoadSettings_MissingAppConfig(t *testing.T) {
	dir := t.TempDir()
	parserPath := writeFile(t, dir, "parser.yaml", "parser_version: v1\n")

	settings, err := LoadSettings(filepath.Join(dir, "missing.yaml"), parserPath)
	require.NoError(t, err)
	assert.Equal(t, "8080", settings.Port)

	_, err = LoadSettings(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestNewStack(t *testing.T) {
	t.Cleanup(func() { config.C = config.Defaults() })

	tests := []struct {
		backend string
		wantErr bool
		noCache bool
	}{
		{backend: "memory"},
		{backend: "none", noCache: true},
		{backend: "bogus", wantErr: true},
		{backend: "redis", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.backend, func(t *testing.T) {
			config.C = config.Defaults()
			config.C.Cache.Backend = tc.backend

			stack, err := NewStack(context.Background(), Settings{RedisURL: "redis://127.0.0.1:1/0"}, zap.NewNop())
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer stack.Close()

			assert.NotNil(t, stack.Gateway)
			assert.NotNil(t, stack.Addresses)
			if tc.noCache {
				assert.Nil(t, stack.Cache)
			} else {
				assert.IsType(t, &services.CacheService{}, stack.Cache)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := NewLogger(env)
		require.NoError(t, err)
		assert.NotNil(t, logger)
	}
}
