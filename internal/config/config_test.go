package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFile_Defaults(t *testing.T) {
	f := Defaults()
	f.JWT.Secret = "secret"

	cfg, err := FromFile(f)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 6, cfg.OTPLength)
	assert.Equal(t, 5, cfg.LockoutMaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.LockoutDuration)
	assert.Equal(t, Window{Max: 5, Window: 15 * time.Minute}, cfg.LoginLimit)
	assert.Equal(t, Window{Max: 10, Window: 10 * time.Minute}, cfg.OTPLimit)
	assert.Equal(t, Window{Max: 3, Window: time.Hour}, cfg.PasswordResetLimit)
	assert.Equal(t, "8080", cfg.Port)
}

func TestFromFile_InvalidDuration(t *testing.T) {
	f := Defaults()
	f.JWT.AccessTTL = "fifteen minutes"

	_, err := FromFile(f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JWT access TTL")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "weak otp hash", mutate: func(c *Config) { c.OTPHashCost = 4 }, wantErr: "otp hash cost must be at least 10"},
		{name: "zero lockout", mutate: func(c *Config) { c.LockoutMaxAttempts = 0 }, wantErr: "lockout threshold"},
		{name: "valid", mutate: func(c *Config) {}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Defaults()
			f.JWT.Secret = "secret"
			cfg, err := FromFile(f)
			require.NoError(t, err)

			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	yml := `
app:
  env: development
  port: 9090
jwt:
  secret: from-file
  access_ttl: 5m
otp:
  default_country_code: "+91"
rate_limit:
  login:
    max: 7
    window: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "+91", cfg.DefaultCountryCode)
	assert.Equal(t, Window{Max: 7, Window: time.Minute}, cfg.LoginLimit)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL, "unset keys keep defaults")
	assert.Equal(t, "AC123", cfg.TwilioSID)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yml"))
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
}
