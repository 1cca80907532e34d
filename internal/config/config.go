// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/fppull.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Table names: single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	WideTable   = "player_week_stats"
	PointsTable = "player_week_points"
	RunsTable   = "pipeline_runs"
	PointsView  = "mv_season_points"

	// StoredChannel is the NOTIFY channel announcing a committed season.
	StoredChannel = "points_stored"
)

// ErrNoDatabase is returned when a command needs Postgres and no URL is set.
var ErrNoDatabase = errors.New("DATABASE_URL must be set")

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// League
	Season   int
	LeagueID string
	Weeks    string // ALL, blank, or a comma list
	DataDir  string

	// Pipeline
	Workers                 int
	Reconcile               string
	UnitCorrectionThreshold float64

	// ESPN
	SWID              string
	ESPNS2            string
	CookieFile        string
	ESPNRatePerMinute int
	CurrentWeek       int

	// Database (optional for file-only runs)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool
	CacheTTL     time.Duration

	// Events
	NATSURL string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	threshold, err := envFloat("UNIT_CORRECTION_THRESHOLD", 1000)
	if err != nil {
		return nil, err
	}

	return &Config{
		Season:   envInt("SEASON", 0),
		LeagueID: envOr("LEAGUE_ID", ""),
		Weeks:    envOr("WEEKS", "ALL"),
		DataDir:  envOr("DATA_DIR", "data"),

		Workers:                 envInt("WORKERS", 4),
		Reconcile:               envOr("RECONCILE", "max"),
		UnitCorrectionThreshold: threshold,

		SWID:              envOr("SWID", ""),
		ESPNS2:            envOr("ESPN_S2", ""),
		CookieFile:        envOr("COOKIE_FILE", ""),
		ESPNRatePerMinute: envInt("ESPN_RATE_PER_MINUTE", 60),
		CurrentWeek:       envInt("CURRENT_WEEK", 0),

		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheTTL:     time.Duration(envInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		NATSURL: envOr("NATS_URL", ""),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RequireDatabase fails when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return ErrNoDatabase
	}
	return nil
}

// --------------------------------------------------------------------------
// Season file layout
// --------------------------------------------------------------------------

// Paths locates the files of one season under DataDir.
type Paths struct {
	Dir         string
	Long        string
	Wide        string
	Points      string
	Scoring     string
	ScoringYAML string
	Teams       string
	TeamScores  string
}

// Paths returns the file layout for season.
func (c *Config) Paths(season int) Paths {
	dir := filepath.Join(c.DataDir, "processed", fmt.Sprintf("season_%d", season))
	espn := filepath.Join(dir, "espn")
	return Paths{
		Dir:         dir,
		Long:        filepath.Join(dir, "player_week_stats_long.csv"),
		Wide:        filepath.Join(dir, "player_week_stats_wide.csv"),
		Points:      filepath.Join(dir, "player_week_points.csv"),
		Scoring:     filepath.Join(espn, "scoring_table.csv"),
		ScoringYAML: filepath.Join(espn, "scoring.yaml"),
		Teams:       filepath.Join(espn, "teams.csv"),
		TeamScores:  filepath.Join(espn, "team_week_official.csv"),
	}
}

// ScoringFile returns the scoring file to use: the YAML document when one
// exists, else the CSV path.
func (p Paths) ScoringFile() string {
	if st, err := os.Stat(p.ScoringYAML); err == nil && !st.IsDir() {
		return p.ScoringYAML
	}
	return p.Scoring
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
