package config

import "os"

// parseEnv overlays Config fields from environment variables. Variables
// that are unset or empty leave the current value in place. The server
// entrypoint loads a .env file first, so these also serve as the
// dotenv-file keys.
func parseEnv(config *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&config.DatabaseDSN, "DATABASE_DSN")
	set(&config.BlobBackend, "BLOB_BACKEND")
	set(&config.BlobDir, "BLOB_DIR")
	set(&config.S3RootUser, "S3_ROOT_USER")
	set(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	set(&config.S3Bucket, "S3_BUCKET")
	set(&config.S3Region, "S3_REGION")
	set(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	set(&config.S3KeyPrefix, "S3_KEY_PREFIX")
}
