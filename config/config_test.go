package config

import (
	"os"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"DATABASE_URL", "DATA_DIR", "LOCK_TIMEOUT", "MATCH_THRESHOLD", "MATCHER",
	"HNSW_CANDIDATES", "HNSW_MIN_SIZE", "EMBEDDING_URL", "EMBEDDING_DIM", "EMBEDDING_TIMEOUT",
	"ATTENDANCE_DEDUP_WINDOW", "ATTENDANCE_TIMEZONE", "JWT_KEY", "JWT_EXPIRATION",
	"ADMIN_EMAIL", "ADMIN_PASSWORD_HASH", "WEB_HOST", "WEB_PORT", "CORS_ORIGINS",
	"BACKUP_CRON", "SUMMARY_CRON", "LOG_LEVEL",
}

// chdirEmpty moves into an empty directory and clears every config variable. Values
// loaded from a .env file during the test are removed again by t.Setenv's cleanup.
func chdirEmpty(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdirEmpty(t)
	t.Setenv("ATTENDANCE_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.6, cfg.Matching.Threshold)
	assert.Equal(t, "linear", cfg.Matching.Matcher)
	assert.Equal(t, 16, cfg.Matching.HNSWCandidates)
	assert.Equal(t, 256, cfg.Matching.HNSWMinSize)
	assert.Equal(t, 5*time.Second, cfg.Storage.LockTimeout)
	assert.Equal(t, "./data", cfg.Storage.DataDir)
	assert.Equal(t, 5000, cfg.Web.Port)
	assert.Equal(t, []string{"*"}, cfg.Web.CORSOrigins)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "0 2 * * *", cfg.Jobs.BackupCron)
	assert.Equal(t, "55 23 * * *", cfg.Jobs.SummaryCron)
	assert.Zero(t, cfg.Attendance.DedupWindow)
	assert.Equal(t, time.UTC, cfg.Attendance.Location)
}

func TestLoad_Overrides(t *testing.T) {
	chdirEmpty(t)
	t.Setenv("MATCH_THRESHOLD", "0.45")
	t.Setenv("MATCHER", "HNSW")
	t.Setenv("LOCK_TIMEOUT", "250ms")
	t.Setenv("ATTENDANCE_DEDUP_WINDOW", "10m")
	t.Setenv("ATTENDANCE_TIMEZONE", "Asia/Jakarta")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("WEB_PORT", "8080")
	t.Setenv("JWT_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.45, cfg.Matching.Threshold)
	assert.Equal(t, "hnsw", cfg.Matching.Matcher)
	assert.Equal(t, 250*time.Millisecond, cfg.Storage.LockTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Attendance.DedupWindow)
	assert.Equal(t, "Asia/Jakarta", cfg.Attendance.Location.String())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Web.CORSOrigins)
	assert.Equal(t, 8080, cfg.Web.Port)
	assert.NoError(t, cfg.RequireAuth())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"MATCH_THRESHOLD":     "1.5",
		"MATCHER":             "faiss",
		"LOCK_TIMEOUT":        "soon",
		"WEB_PORT":            "-1",
		"ATTENDANCE_TIMEZONE": "Mars/Olympus",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			chdirEmpty(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	chdirEmpty(t)
	require.NoError(t, os.WriteFile(".env", []byte("MATCH_THRESHOLD=0.7\nLOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.7, cfg.Matching.Threshold)
	// the process environment wins over .env
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestRequireAuth(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireAuth())
}
