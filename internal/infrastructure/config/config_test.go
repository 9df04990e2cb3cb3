package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("SECRETS_FILE", filepath.Join(dir, "secrets.toml"))
	return dir
}

func TestLoadMissingKeyHalts(t *testing.T) {
	isolate(t)

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("GOOGLE_API_KEY", "env-key")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("SESSION_MAX", "50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 50, cfg.Session.MaxSessions)
	assert.Equal(t, "iso27001_data.json", cfg.Storage.DataFile)
	assert.Equal(t, "sdk", cfg.Gemini.Backend)
}

func TestSecretsFileTakesPrecedence(t *testing.T) {
	dir := isolate(t)
	t.Setenv("GOOGLE_API_KEY", "env-key")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.toml"), []byte(`GOOGLE_API_KEY = "file-key"`+"\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Gemini.APIKey)
}

func TestMalformedSecretsFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("GOOGLE_API_KEY", "env-key")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.toml"), []byte("GOOGLE_API_KEY = \n"), 0o600))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)

	cfg.Gemini.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Gemini.Backend = "grpc"
	assert.Error(t, cfg.Validate())

	cfg.Gemini.Backend = "rest"
	cfg.Session.TTL = 0
	assert.Error(t, cfg.Validate())
}
