package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	// Test cases
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd",
			"-d", "db", "-s", "secret", "-t", "60", "-q", "1048576",
			"-k", "s3", "-f", "/var/blobs", "-u", "user", "-p", "password",
			"-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
			"-n", "nats://127.0.0.1:4222", "-v", "5",
		}, expectPanic: false,
			expected: &Config{
				DatabaseDSN:                 "db",
				SecretKey:                   "secret",
				AccessTokenValidityDuration: 60 * time.Minute,
				DefaultStorageQuota:         1048576,
				BlobBackend:                 "s3",
				BlobBaseDir:                 "/var/blobs",
				S3RootUser:                  "user",
				S3RootPassword:              "password",
				S3Bucket:                    "bucket",
				S3Region:                    "us-west-1",
				S3BaseEndpoint:              "http://endpoint",
				NATSURL:                     "nats://127.0.0.1:4222",
				PruneKeepCount:              5,
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {

				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
