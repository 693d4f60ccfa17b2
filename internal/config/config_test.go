package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "eventos", cfg.DBName)
	assert.False(t, cfg.NotifyOrganizer)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("NOTIFY_ORGANIZER", "true")
	t.Setenv("ORGANIZER_EMAIL", "org@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.True(t, cfg.NotifyOrganizer)
	assert.Equal(t, "org@example.com", cfg.OrganizerEmail)
}

func TestOrganizerNoticeNeedsAddress(t *testing.T) {
	t.Setenv("NOTIFY_ORGANIZER", "true")
	t.Setenv("ORGANIZER_EMAIL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestOrganizerLoginNeedsSecret(t *testing.T) {
	t.Setenv("ADMIN_USERNAME", "org")
	t.Setenv("ADMIN_PASSWORD", "123456")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cr3t")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", cfg.JWTSecret)
}

func TestLoadWithoutEnvFile(t *testing.T) {
	// Run from a directory guaranteed to have no .env file.
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "localhost", DBPort: "5432", DBUser: "postgres",
		DBPassword: "secret", DBName: "eventos", DBSSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=eventos sslmode=disable",
		cfg.DSN(),
	)
}
