package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                  "development",
		JWTSecret:            "secure-secret-at-least-32-chars-long",
		DBPassword:           "secure-password",
		DBSSLMode:            "require",
		Port:                 "5000",
		ImageHost:            "local",
		ImageMaxUploadSizeMB: 5,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development config", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"zero upload size", func(c *Config) { c.ImageMaxUploadSizeMB = 0 }, true},
		{"unknown image host", func(c *Config) { c.ImageHost = "cloudinary" }, true},
		{"s3 without bucket", func(c *Config) { c.ImageHost = "s3"; c.S3Bucket = "" }, true},
		{"s3 with bucket", func(c *Config) { c.ImageHost = "s3"; c.S3Bucket = "pics" }, false},
		{"short secret allowed outside production", func(c *Config) { c.JWTSecret = "short" }, false},
		{"production with default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = DefaultJWTSecret }, true},
		{"production with short secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"production with default db password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }, true},
		{"production with database url", func(c *Config) {
			c.Env = "production"
			c.DBPassword = ""
			c.DatabaseURL = "postgres://u:p@db/devfolio"
		}, false},
		{"production with strong settings", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	c := &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://u:p@db:5432/n"
	assert.Equal(t, "postgres://u:p@db:5432/n", c.DSN())
}

func TestLoadConfig_DefaultsAndNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("IMAGE_HOST", " Local ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "local", c.ImageHost)
	assert.Equal(t, "5000", c.Port)
	assert.Equal(t, 100, c.RateLimitMax)
	assert.Equal(t, 15, c.RateLimitWindowMinutes)
}
