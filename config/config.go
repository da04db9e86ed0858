package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

// JWTClaims is the payload of an admin session token.
type JWTClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Config struct {
	Storage    StorageConfig
	Matching   MatchingConfig
	Embedding  EmbeddingConfig
	Attendance AttendanceConfig
	Auth       AuthConfig
	Web        WebConfig
	Jobs       JobsConfig
	LogLevel   string
}

type StorageConfig struct {
	DatabaseURL string        // MySQL DSN or sqlite://path; empty uses DataDir files
	DataDir     string        // directory for file snapshots (default ./data)
	LockTimeout time.Duration // bound on waiting for the identity/attendance lock
}

type MatchingConfig struct {
	Threshold      float64 // best similarity must be strictly greater (default 0.6)
	Matcher        string  // "linear" or "hnsw"
	HNSWCandidates int     // neighbours re-scored exactly by the hnsw matcher
	HNSWMinSize    int     // below this many identities the hnsw matcher scans linearly
}

type EmbeddingConfig struct {
	URL       string        // defaults to http://localhost:8000
	Dimension int           // 0 learns the length from the first enrollment
	Timeout   time.Duration // per request
}

type AttendanceConfig struct {
	DedupWindow time.Duration // 0 records every check-in
	Location    *time.Location
}

type AuthConfig struct {
	JWTKey            []byte
	TokenTTL          time.Duration
	AdminEmail        string
	AdminPasswordHash string // bcrypt
}

type WebConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

type JobsConfig struct {
	BackupCron  string // empty disables
	SummaryCron string // empty disables
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: invalid non-negative integer %q", key, s)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, s)
	}
	return f, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, s)
	}
	return d, nil
}

// Load reads the environment. A .env file in the working directory is optional and only
// fills variables that are not already set.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		Storage: StorageConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			DataDir:     envString("DATA_DIR", "./data"),
		},
		Matching: MatchingConfig{
			Matcher: strings.ToLower(envString("MATCHER", "linear")),
		},
		Embedding: EmbeddingConfig{
			URL: envString("EMBEDDING_URL", "http://localhost:8000"),
		},
		Auth: AuthConfig{
			JWTKey:            []byte(os.Getenv("JWT_KEY")),
			AdminEmail:        os.Getenv("ADMIN_EMAIL"),
			AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		Web: WebConfig{
			Host:        envString("WEB_HOST", "0.0.0.0"),
			CORSOrigins: splitList(envString("CORS_ORIGINS", "*")),
		},
		Jobs: JobsConfig{
			BackupCron:  envString("BACKUP_CRON", "0 2 * * *"),
			SummaryCron: envString("SUMMARY_CRON", "55 23 * * *"),
		},
		LogLevel: envString("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.Storage.LockTimeout, err = envDuration("LOCK_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Matching.Threshold, err = envFloat("MATCH_THRESHOLD", 0.6); err != nil {
		return nil, err
	}
	if cfg.Matching.HNSWCandidates, err = envInt("HNSW_CANDIDATES", 16); err != nil {
		return nil, err
	}
	if cfg.Matching.HNSWMinSize, err = envInt("HNSW_MIN_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.Embedding.Dimension, err = envInt("EMBEDDING_DIM", 0); err != nil {
		return nil, err
	}
	if cfg.Embedding.Timeout, err = envDuration("EMBEDDING_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Attendance.DedupWindow, err = envDuration("ATTENDANCE_DEDUP_WINDOW", 0); err != nil {
		return nil, err
	}
	if cfg.Auth.TokenTTL, err = envDuration("JWT_EXPIRATION", 8*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Web.Port, err = envInt("WEB_PORT", 5000); err != nil {
		return nil, err
	}

	tz := envString("ATTENDANCE_TIMEZONE", "Local")
	if cfg.Attendance.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("ATTENDANCE_TIMEZONE: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that are invalid no matter which command runs.
func (c *Config) Validate() error {
	if c.Matching.Threshold < -1 || c.Matching.Threshold >= 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be in [-1, 1), got %v", c.Matching.Threshold)
	}
	switch c.Matching.Matcher {
	case "linear", "hnsw":
	default:
		return fmt.Errorf("MATCHER must be linear or hnsw, got %q", c.Matching.Matcher)
	}
	return nil
}

// RequireAuth is checked by the HTTP server only; CLI commands run without a JWT key.
func (c *Config) RequireAuth() error {
	if len(c.Auth.JWTKey) == 0 {
		return fmt.Errorf("JWT_KEY is required to serve the API")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
