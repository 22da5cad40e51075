package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/kidsgram/internal/flagx"
	"github.com/dmitrijs2005/kidsgram/internal/timex"
)

var configPath = flagx.ConfigPath

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// Only keys present in the file override the current values.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	DatabaseDriver              *string         `json:"database_driver"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	OIDCIssuer                  *string         `json:"oidc_issuer"`
	OIDCClientID                *string         `json:"oidc_client_id"`
	MediaBackend                *string         `json:"media_backend"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	S3PresignExpiry             *timex.Duration `json:"s3_presign_expiry"`
	MaxPhotoBytes               *int            `json:"max_photo_bytes"`
	MaxAudioBytes               *int            `json:"max_audio_bytes"`
	LogLevel                    *string         `json:"log_level"`
	ShutdownTimeout             *timex.Duration `json:"shutdown_timeout"`
	SessionIdleTimeout          *timex.Duration `json:"session_idle_timeout"`
}

// parseJson overlays values from the JSON file at path onto config. An empty
// path loads nothing.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	set(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	set(&config.DatabaseDriver, c.DatabaseDriver)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	set(&config.OIDCIssuer, c.OIDCIssuer)
	set(&config.OIDCClientID, c.OIDCClientID)
	set(&config.MediaBackend, c.MediaBackend)
	set(&config.S3RootUser, c.S3RootUser)
	set(&config.S3RootPassword, c.S3RootPassword)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.S3PresignExpiry, c.S3PresignExpiry)
	set(&config.MaxPhotoBytes, c.MaxPhotoBytes)
	set(&config.MaxAudioBytes, c.MaxAudioBytes)
	set(&config.LogLevel, c.LogLevel)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)
	setDuration(&config.SessionIdleTimeout, c.SessionIdleTimeout)

	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
