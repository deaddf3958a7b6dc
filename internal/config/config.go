package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppDirName is the per-user configuration directory name.
const AppDirName = "SpotifyAlarm"

// Config holds the daemon configuration.
type Config struct {
	Host string
	Port string

	// Spotify application credentials, provisioned by the installer.
	ClientID     string
	ClientSecret string

	// DefaultURI is the process-wide default playback target.
	// Optional; alarms without a URI fall back to it at fire time.
	DefaultURI string

	// RedirectURI must match the Spotify developer dashboard exactly.
	RedirectURI string

	AlarmsPath     string
	TokenCachePath string
	SQLiteDBPath   string

	SpotifyTimeoutMs     int
	AuthWaitTimeoutSec   int
	AutoLaunch           bool
	HistoryRetentionDays int
	DispatchWorkers      int
	DispatchQueueSize    int
}

// fileConfig is the on-disk shape. The file may be YAML or JSON
// (JSON is a YAML subset, one decoder covers both).
type fileConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	DefaultURI   string `yaml:"default_uri"`
}

// Dir returns the per-user configuration directory, creating it if needed.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	dir := filepath.Join(base, AppDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the config file and applies environment overrides.
// The file location is SPOTIFY_ALARM_CONFIG if set, otherwise
// config.yaml or config.json under the user config dir.
func Load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Config{}, err
	}

	path := envString("SPOTIFY_ALARM_CONFIG", "")
	if path == "" {
		path = findConfigFile(dir)
	}

	var fc fileConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Host:                 envString("HOST", "127.0.0.1"),
		Port:                 envString("PORT", "9090"),
		ClientID:             envString("SPOTIFY_CLIENT_ID", fc.ClientID),
		ClientSecret:         envString("SPOTIFY_CLIENT_SECRET", fc.ClientSecret),
		DefaultURI:           strings.TrimSpace(envString("SPOTIFY_DEFAULT_URI", fc.DefaultURI)),
		RedirectURI:          envString("SPOTIFY_REDIRECT_URI", "http://127.0.0.1:8080/callback"),
		AlarmsPath:           envString("ALARMS_PATH", filepath.Join(dir, "alarms.json")),
		TokenCachePath:       envString("TOKEN_CACHE_PATH", filepath.Join(dir, "tokens.json")),
		SQLiteDBPath:         envString("SQLITE_DB_PATH", filepath.Join(dir, "history.db")),
		SpotifyTimeoutMs:     envInt("SPOTIFY_TIMEOUT_MS", 15000),
		AuthWaitTimeoutSec:   envInt("AUTH_WAIT_TIMEOUT_SEC", 120),
		AutoLaunch:           envBool("AUTO_LAUNCH", true),
		HistoryRetentionDays: envInt("HISTORY_RETENTION_DAYS", 90),
		DispatchWorkers:      envInt("DISPATCH_WORKERS", 4),
		DispatchQueueSize:    envInt("DISPATCH_QUEUE_SIZE", 16),
	}

	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return Config{}, fmt.Errorf(
			"client_id or client_secret missing; expected a config file at %s containing client_id, client_secret and an optional default_uri",
			filepath.Join(dir, "config.yaml"))
	}

	return cfg, nil
}

func findConfigFile(dir string) string {
	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true")
}
