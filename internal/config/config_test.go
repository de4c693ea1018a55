package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"dsn": "postgres://localhost/carevault?sslmode=disable",
		"port": 8080,
		"jwt_secret": "s3cret",
		"ai": {"provider": "openai", "model": "gpt-4o-mini", "embed_model": "text-embedding-ada-002", "data": {"api_key": "k"}}
	}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 72, cfg.JWTTTLHours)
	assert.Equal(t, "local", cfg.FileStore.Type)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.VisionModel)
	assert.Equal(t, 1000, cfg.Ingest.MaxChunkSize)
	assert.Equal(t, 3, cfg.Ingest.TopK)
	assert.InDelta(t, 0.7, cfg.Ingest.SimilarityThreshold, 1e-9)
	assert.Equal(t, 50, cfg.Ingest.PendingBatchLimit)
}

func TestLoadMissingRequired(t *testing.T) {
	cases := []string{
		`{"port": 8080, "jwt_secret": "x", "ai": {"provider": "openai", "model": "m", "embed_model": "e"}}`,
		`{"dsn": "d", "jwt_secret": "x", "ai": {"provider": "openai", "model": "m", "embed_model": "e"}}`,
		`{"dsn": "d", "port": 8080, "ai": {"provider": "openai", "model": "m", "embed_model": "e"}}`,
		`{"dsn": "d", "port": 8080, "jwt_secret": "x", "ai": {"model": "m", "embed_model": "e"}}`,
		`{"dsn": "d", "port": 8080, "jwt_secret": "x", "ai": {"provider": "openai", "embed_model": "e"}}`,
		`{"dsn": "d", "port": 8080, "jwt_secret": "x", "ai": {"provider": "openai", "model": "m"}}`,
	}
	for _, content := range cases {
		_, err := Load(writeConfig(t, content))
		assert.Error(t, err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
