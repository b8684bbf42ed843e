package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // MDPREVIEW_CONFIG: config file name or path
	Addr       string        // MDPREVIEW_ADDR: serve listen address
	Watch      string        // MDPREVIEW_WATCH: file followed by serve
	AssetPath  string        // MDPREVIEW_ASSET_PATH: custom asset directory
	PageSize   string        // MDPREVIEW_PAGE_SIZE: printed page size
	Timeout    time.Duration // MDPREVIEW_TIMEOUT: PDF generation timeout
	Workers    int           // MDPREVIEW_WORKERS: parallel browsers for print
}

// knownEnvVars lists valid MDPREVIEW_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MDPREVIEW_CONFIG":     true,
	"MDPREVIEW_ADDR":       true,
	"MDPREVIEW_WATCH":      true,
	"MDPREVIEW_ASSET_PATH": true,
	"MDPREVIEW_PAGE_SIZE":  true,
	"MDPREVIEW_TIMEOUT":    true,
	"MDPREVIEW_WORKERS":    true,
	"MDPREVIEW_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Malformed durations and counts are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("MDPREVIEW_CONFIG"),
		Addr:       getenv("MDPREVIEW_ADDR"),
		Watch:      getenv("MDPREVIEW_WATCH"),
		AssetPath:  getenv("MDPREVIEW_ASSET_PATH"),
		PageSize:   getenv("MDPREVIEW_PAGE_SIZE"),
	}

	if timeout := getenv("MDPREVIEW_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("MDPREVIEW_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MDPREVIEW_* variables.
// Helps catch typos like MDPREVIEW_ADRESS.
func warnUnknownEnvVars(environ []string, logger zerolog.Logger) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, "MDPREVIEW_") {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			logger.Warn().Str("variable", name).Msg("unknown environment variable (typo?)")
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Set variables override the config file; CLI flags are applied later and
// override both: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Addr != "" {
		cfg.Server.Addr = env.Addr
	}
	if env.Watch != "" {
		cfg.Watch.File = env.Watch
	}
	if env.AssetPath != "" {
		cfg.Assets.BasePath = env.AssetPath
	}
	if env.PageSize != "" {
		cfg.Print.PageSize = env.PageSize
	}
	if env.Timeout > 0 {
		cfg.Print.Timeout = env.Timeout
	}
}
