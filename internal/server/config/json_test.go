package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"database_dsn":                   "postgres://localhost/filebox",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "1m",
		"default_storage_quota":          2048,
		"blob_backend":                   "s3",
		"blob_base_dir":                  "/srv/blobs",
		"s3_root_user":                   "user",
		"s3_root_password":               "password",
		"s3_bucket":                      "bucket",
		"s3_region":                      "region",
		"s3_base_endpoint":               "base_endpoint",
		"nats_url":                       "nats://127.0.0.1:4222",
		"prune_keep_count":               3,
		"prune_interval":                 "30m",
		"share_reap_interval":            "2h",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "postgres://localhost/filebox", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, int64(2048), cfg.DefaultStorageQuota)
		assert.Equal(t, "s3", cfg.BlobBackend)
		assert.Equal(t, "/srv/blobs", cfg.BlobBaseDir)
		assert.Equal(t, "user", cfg.S3RootUser)
		assert.Equal(t, "password", cfg.S3RootPassword)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "region", cfg.S3Region)
		assert.Equal(t, "base_endpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATSURL)
		assert.Equal(t, 3, cfg.PruneKeepCount)
		assert.Equal(t, 30*time.Minute, cfg.PruneInterval)
		assert.Equal(t, 2*time.Hour, cfg.ShareReapInterval)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			DatabaseDSN:                 "defaults.db",
			SecretKey:                   "key",
			AccessTokenValidityDuration: 2 * time.Minute,
			DefaultStorageQuota:         42,
			BlobBackend:                 "fs",
			BlobBaseDir:                 "blobs",
			S3RootUser:                  "s3root",
			S3RootPassword:              "s3rootpassword",
			S3Bucket:                    "s3bucket",
			S3Region:                    "s3region",
			S3BaseEndpoint:              "s3baseendpoint",
			NATSURL:                     "nats://example",
			PruneKeepCount:              7,
			PruneInterval:               time.Hour,
			ShareReapInterval:           time.Hour,
		}
		parseJson(cfg)

		assert.Equal(t, "defaults.db", cfg.DatabaseDSN)
		assert.Equal(t, "key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, int64(42), cfg.DefaultStorageQuota)
		assert.Equal(t, "fs", cfg.BlobBackend)
		assert.Equal(t, "blobs", cfg.BlobBaseDir)
		assert.Equal(t, "s3root", cfg.S3RootUser)
		assert.Equal(t, "s3rootpassword", cfg.S3RootPassword)
		assert.Equal(t, "s3bucket", cfg.S3Bucket)
		assert.Equal(t, "s3region", cfg.S3Region)
		assert.Equal(t, "s3baseendpoint", cfg.S3BaseEndpoint)
		assert.Equal(t, "nats://example", cfg.NATSURL)
		assert.Equal(t, 7, cfg.PruneKeepCount)
		assert.Equal(t, time.Hour, cfg.PruneInterval)
		assert.Equal(t, time.Hour, cfg.ShareReapInterval)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
