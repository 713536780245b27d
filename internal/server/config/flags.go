package config

import (
	"flag"
	"os"

	"github.com/dbelyaev/cloudstash/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-k string   blob backend: "fs", "s3" or "badger"
//	-f string   blob directory for the fs and badger backends
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-x string   S3 key prefix
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-k", "-f", "-u", "-p", "-b", "-g", "-e", "-x"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BlobBackend, "k", config.BlobBackend, "blob backend (fs, s3 or badger)")
	fs.StringVar(&config.BlobDir, "f", config.BlobDir, "blob directory for fs and badger backends")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3KeyPrefix, "x", config.S3KeyPrefix, "S3 key prefix")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
