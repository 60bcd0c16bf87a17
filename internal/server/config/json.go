package config

import (
	"encoding/json"
	"os"

	"github.com/psemenov/filebox/internal/flagx"
	"github.com/psemenov/filebox/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	DefaultStorageQuota         int64          `json:"default_storage_quota"`
	BlobBackend                 string         `json:"blob_backend"`
	BlobBaseDir                 string         `json:"blob_base_dir"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	NATSURL                     string         `json:"nats_url"`
	PruneKeepCount              int            `json:"prune_keep_count"`
	PruneInterval               timex.Duration `json:"prune_interval"`
	ShareReapInterval           timex.Duration `json:"share_reap_interval"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; when
// neither is set, no JSON file is loaded. A missing or malformed file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.DefaultStorageQuota = c.DefaultStorageQuota
	config.BlobBackend = c.BlobBackend
	config.BlobBaseDir = c.BlobBaseDir
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.NATSURL = c.NATSURL
	config.PruneKeepCount = c.PruneKeepCount
	config.PruneInterval = c.PruneInterval.Duration
	config.ShareReapInterval = c.ShareReapInterval.Duration
}
