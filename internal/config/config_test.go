package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, 8280, cfg.HTTP.Port)
	assert.Equal(t, "local", cfg.Embeddings.Provider)
	assert.Equal(t, 384, cfg.Embeddings.Dimensions)
	assert.Equal(t, 5*time.Second, cfg.Database.BusyTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NOVAPORT_LOG_LEVEL", "debug")
	t.Setenv("NOVAPORT_HTTP_PORT", "9999")
	t.Setenv("NOVAPORT_EMBEDDINGS_DIMENSIONS", "128")

	cfg := DefaultConfig()
	cfg.loadFromEnv()

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9999, cfg.HTTP.Port)
	assert.Equal(t, 128, cfg.Embeddings.Dimensions)
}

func TestYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "novaport.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  host: 0.0.0.0\n  port: 8400\n  max_request_bytes: 1048576\n"), 0o600))
	t.Setenv("NOVAPORT_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8400", cfg.HTTP.Addr())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative port", func(c *Config) { c.HTTP.Port = -1 }, "invalid http port"},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "cohere" }, "unknown embeddings provider"},
		{"openai without key", func(c *Config) { c.Embeddings.Provider = "openai" }, "requires OPENAI_API_KEY"},
		{"zero dimensions", func(c *Config) { c.Embeddings.Dimensions = 0 }, "dimensions must be positive"},
		{"zero conns", func(c *Config) { c.Database.MaxOpenConns = 0 }, "max_open_conns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPathsFor(t *testing.T) {
	p := PathsFor("/home/alice/project")

	assert.Equal(t, "/home/alice/project", p.Root)
	assert.Equal(t, filepath.Join("/home/alice/project", ".novaport_data"), p.DataDir)
	assert.Equal(t, filepath.Join(p.DataDir, "conport.db"), p.Database)
	assert.Equal(t, filepath.Join(p.DataDir, "vectordb"), p.VectorDir)
	assert.Equal(t, filepath.Join(p.VectorDir, "vectors.db"), p.VectorDB)
}

func TestWorkspaceIDCodec(t *testing.T) {
	id := "/tmp/проект/space here"
	encoded := EncodeWorkspaceID(id)

	decoded, err := DecodeWorkspaceID(encoded)
	require.NoError(t, err)
	assert.Equal(t, id, decoded)

	// Padded form is accepted too.
	decoded, err = DecodeWorkspaceID(encoded + "==")
	require.NoError(t, err)
	assert.Equal(t, id, decoded)
}

func TestDecodeWorkspaceIDRejectsGarbage(t *testing.T) {
	_, err := DecodeWorkspaceID("")
	assert.Error(t, err)

	_, err = DecodeWorkspaceID("!!!not-base64!!!")
	assert.Error(t, err)
}
