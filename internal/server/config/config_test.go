package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.EndpointAddr)
	assert.NotEmpty(t, cfg.DatabaseDSN)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "nozoku", cfg.S3Bucket)
}

func TestLoadConfig_FlagsOverrideDefaults(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	os.Args = []string{"server", "-a", ":9090", "-d", "postgres://x/y", "-t", "5", "-w", "3"}

	cfg := LoadConfig()

	assert.Equal(t, ":9090", cfg.EndpointAddr)
	assert.Equal(t, "postgres://x/y", cfg.DatabaseDSN)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	content := `{
		"endpoint_addr": ":7070",
		"database_dsn": "postgres://json/db",
		"secret_key": "json-secret",
		"access_token_validity_duration": "30m",
		"refresh_token_validity_duration": "48h",
		"request_timeout": "5s",
		"s3_root_user": "root",
		"s3_root_password": "pw",
		"s3_bucket": "bkt",
		"s3_region": "eu-west-1",
		"s3_base_endpoint": "http://s3.local/"
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	os.Args = []string{"server", "-c", path}

	cfg := LoadConfig()

	assert.Equal(t, ":7070", cfg.EndpointAddr)
	assert.Equal(t, "postgres://json/db", cfg.DatabaseDSN)
	assert.Equal(t, "json-secret", cfg.SecretKey)
	assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, 48*time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "bkt", cfg.S3Bucket)
}

func TestLoadConfig_FlagsWinOverJson(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	dir := t.TempDir()
	path := filepath.Join(dir, "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"endpoint_addr": ":7070"}`), 0o600))

	os.Args = []string{"server", "-c", path, "-a", ":6060"}

	cfg := LoadConfig()
	assert.Equal(t, ":6060", cfg.EndpointAddr)
}
