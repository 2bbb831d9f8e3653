package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("RAW_DATA", "/srv/raw")
	path := writeConfig(t, `
datasets:
  - type: ghc
    dataset_dir: ${RAW_DATA}/ghc
    val_split_ratio: 0.1
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8003", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "./data/runs.db", cfg.Database.Path)
	require.Len(t, cfg.Datasets, 1)
	assert.Equal(t, "ghc", cfg.Datasets[0].DatasetName)
	assert.Equal(t, "/srv/raw/ghc", cfg.Datasets[0].DatasetDir)
	assert.Empty(t, cfg.Export.Dir)
	assert.Nil(t, cfg.Export.ObjectStore)
}

func TestLoadConfig_ObjectStoreCredentials(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY", "access")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	path := writeConfig(t, `
pool:
  workers: 3
  queue_size: 12
datasets:
  - type: twitter
    dataset_name: cyberbullying_tweets
    dataset_dir: /raw/twitter
    val_split_ratio: 0.125
    test_split_ratio: 0.1
export:
  dir: /out
  object_store:
    endpoint: localhost:9000
    access_key: ${MINIO_ACCESS_KEY}
    secret_key: ${MINIO_SECRET_KEY}
    bucket: corpus
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pool.Workers)
	assert.Equal(t, 12, cfg.Pool.QueueSize)
	require.NotNil(t, cfg.Export.ObjectStore)
	assert.Equal(t, "access", cfg.Export.ObjectStore.AccessKey)
	assert.Equal(t, "secret", cfg.Export.ObjectStore.SecretKey)
	assert.Equal(t, 0.1, cfg.Datasets[0].TestSplitRatio)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "no datasets",
			body:    "server:\n  port: \"9000\"\n",
			wantErr: "at least one dataset",
		},
		{
			name:    "unknown field",
			body:    "datasets:\n  - type: ghc\n    dataset_dir: /d\n    seed: 7\n",
			wantErr: "seed",
		},
		{
			name:    "missing dataset dir",
			body:    "datasets:\n  - type: ghc\n",
			wantErr: "dataset_dir is required",
		},
		{
			name:    "duplicate names",
			body:    "datasets:\n  - type: ghc\n    dataset_dir: /a\n  - type: ghc\n    dataset_dir: /b\n",
			wantErr: "configured twice",
		},
		{
			name:    "bad database",
			body:    "database:\n  type: mysql\ndatasets:\n  - type: ghc\n    dataset_dir: /a\n",
			wantErr: "unsupported database type",
		},
		{
			name:    "object store without bucket",
			body:    "datasets:\n  - type: ghc\n    dataset_dir: /a\nexport:\n  object_store:\n    endpoint: localhost:9000\n",
			wantErr: "endpoint and bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
