package config

import (
	"flag"
	"os"
	"time"

	"github.com/psemenov/filebox/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-q int      default storage quota, bytes
//	-k string   blob backend ("fs" or "s3")
//	-f string   base directory for the fs blob backend
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-n string   NATS URL (empty disables notifications)
//	-v int      versions kept by the pruning sweep
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-d", "-s", "-t", "-q", "-k", "-f", "-u", "-p", "-b", "-g", "-e", "-n", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.Int64Var(&config.DefaultStorageQuota, "q", config.DefaultStorageQuota, "default storage quota in bytes")
	fs.StringVar(&config.BlobBackend, "k", config.BlobBackend, "blob backend: fs or s3")
	fs.StringVar(&config.BlobBaseDir, "f", config.BlobBaseDir, "fs blob store base directory")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.NATSURL, "n", config.NATSURL, "NATS URL")
	fs.IntVar(&config.PruneKeepCount, "v", config.PruneKeepCount, "versions kept per file when pruning")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
