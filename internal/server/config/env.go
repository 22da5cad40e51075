package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath   = ".env"
	envPrefix = "KIDSGRAM"
)

// parseEnv overlays KIDSGRAM_* environment variables. Variables from the
// .env file at path are loaded first but never override the real
// environment.
func parseEnv(config *Config, path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	str("http_addr", &config.EndpointAddrHTTP)
	str("database_driver", &config.DatabaseDriver)
	str("database_dsn", &config.DatabaseDSN)
	str("secret_key", &config.SecretKey)
	str("oidc_issuer", &config.OIDCIssuer)
	str("oidc_client_id", &config.OIDCClientID)
	str("media_backend", &config.MediaBackend)
	str("s3_root_user", &config.S3RootUser)
	str("s3_root_password", &config.S3RootPassword)
	str("s3_bucket", &config.S3Bucket)
	str("s3_region", &config.S3Region)
	str("s3_base_endpoint", &config.S3BaseEndpoint)
	str("log_level", &config.LogLevel)

	if v.IsSet("access_token_validity") {
		config.AccessTokenValidityDuration = v.GetDuration("access_token_validity")
	}
	if v.IsSet("s3_presign_expiry") {
		config.S3PresignExpiry = v.GetDuration("s3_presign_expiry")
	}
	if v.IsSet("shutdown_timeout") {
		config.ShutdownTimeout = v.GetDuration("shutdown_timeout")
	}
	if v.IsSet("session_idle_timeout") {
		config.SessionIdleTimeout = v.GetDuration("session_idle_timeout")
	}
	if v.IsSet("max_photo_bytes") {
		config.MaxPhotoBytes = v.GetInt("max_photo_bytes")
	}
	if v.IsSet("max_audio_bytes") {
		config.MaxAudioBytes = v.GetInt("max_audio_bytes")
	}

	return nil
}
