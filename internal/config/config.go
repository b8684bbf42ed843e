package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/alnah/go-mdpreview/internal/pipeline"
	"github.com/alnah/go-mdpreview/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxAddrLength        = 256
	MaxPathLength        = 4096
	MaxClassPrefixLength = 50
	MaxStyleNameLength   = 50
	MaxExtensionLength   = 16
	MaxExtensions        = 20
	MaxMarginLength      = 12
)

// Limits on durations.
const (
	MaxResetDelay   = time.Minute
	MaxPrintTimeout = 10 * time.Minute
)

// Defaults.
const (
	DefaultAddr         = "127.0.0.1:8080"
	DefaultResetDelay   = 2 * time.Second
	DefaultPageSize     = "A4"
	DefaultMargin       = "20mm"
	DefaultPrintTimeout = 30 * time.Second
)

// Highlight modes accepted in render.highlightMode.
const (
	HighlightModePull  = "pull"
	HighlightModeMount = "mount"
)

// ValidPageSizes lists the CSS page sizes accepted in print.pageSize.
var ValidPageSizes = []string{"A3", "A4", "A5", "B4", "B5", "Letter", "Legal", "Ledger"}

var marginPattern = regexp.MustCompile(`^\d+(\.\d+)?(mm|cm|in|px|pt)$`)

// Config holds all configuration for the editor, the server and the CLI.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Render RenderConfig `yaml:"render"`
	Import ImportConfig `yaml:"import"`
	Copy   CopyConfig   `yaml:"copy"`
	Print  PrintConfig  `yaml:"print"`
	Assets AssetsConfig `yaml:"assets"`
	Watch  WatchConfig  `yaml:"watch"`
}

// ServerConfig defines the local editor server.
type ServerConfig struct {
	Addr string `yaml:"addr"` // host:port, loopback by default
	Open bool   `yaml:"open"` // log the URL prominently on start
}

// RenderConfig defines Markdown rendering options.
type RenderConfig struct {
	GFM                  bool   `yaml:"gfm"`
	SoftLineBreaks       bool   `yaml:"softLineBreaks"`
	HighlightClassPrefix string `yaml:"highlightClassPrefix"`
	HighlightStyle       string `yaml:"highlightStyle"` // chroma style name
	HighlightMode        string `yaml:"highlightMode"`  // "pull" or "mount"
}

// ImportConfig defines which files can be imported.
type ImportConfig struct {
	Extensions []string `yaml:"extensions"` // matched case-insensitively
}

// CopyConfig defines the copy button behavior.
type CopyConfig struct {
	ResetDelay time.Duration `yaml:"resetDelay"`
}

// PrintConfig defines PDF export settings.
type PrintConfig struct {
	PageSize string        `yaml:"pageSize"`
	Margin   string        `yaml:"margin"` // CSS length, e.g. "20mm"
	Timeout  time.Duration `yaml:"timeout"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
}

// WatchConfig defines the file to follow in serve mode.
type WatchConfig struct {
	File string `yaml:"file"` // Empty = no watching
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: DefaultAddr},
		Render: RenderConfig{
			GFM:                  true,
			SoftLineBreaks:       true,
			HighlightClassPrefix: "hljs language-",
			HighlightStyle:       "onedark",
			HighlightMode:        HighlightModePull,
		},
		Import: ImportConfig{Extensions: []string{".md", ".markdown"}},
		Copy:   CopyConfig{ResetDelay: DefaultResetDelay},
		Print: PrintConfig{
			PageSize: DefaultPageSize,
			Margin:   DefaultMargin,
			Timeout:  DefaultPrintTimeout,
		},
	}
}

// Validate checks field lengths and enum values.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("server.addr", c.Server.Addr, MaxAddrLength); err != nil {
		return err
	}

	if err := validateFieldLength("render.highlightClassPrefix", c.Render.HighlightClassPrefix, MaxClassPrefixLength); err != nil {
		return err
	}
	if !pipeline.ValidClassPrefix(c.Render.HighlightClassPrefix) {
		return fmt.Errorf("%w: render.highlightClassPrefix %q (letters, digits, spaces and _ + # . - only)", ErrInvalidValue, c.Render.HighlightClassPrefix)
	}
	if err := validateFieldLength("render.highlightStyle", c.Render.HighlightStyle, MaxStyleNameLength); err != nil {
		return err
	}
	switch c.Render.HighlightMode {
	case "", HighlightModePull, HighlightModeMount:
	default:
		return fmt.Errorf("%w: render.highlightMode %q (must be pull or mount)", ErrInvalidValue, c.Render.HighlightMode)
	}

	if len(c.Import.Extensions) > MaxExtensions {
		return fmt.Errorf("%w: import.extensions has %d entries (max %d)", ErrInvalidValue, len(c.Import.Extensions), MaxExtensions)
	}
	for i, ext := range c.Import.Extensions {
		field := fmt.Sprintf("import.extensions[%d]", i)
		if err := validateFieldLength(field, ext, MaxExtensionLength); err != nil {
			return err
		}
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") || strings.ContainsAny(ext[1:], `./\ `) {
			return fmt.Errorf("%w: %s %q (must look like .md)", ErrInvalidValue, field, ext)
		}
	}

	if c.Copy.ResetDelay < 0 || c.Copy.ResetDelay > MaxResetDelay {
		return fmt.Errorf("%w: copy.resetDelay %s (must be between 0 and %s)", ErrInvalidValue, c.Copy.ResetDelay, MaxResetDelay)
	}

	if c.Print.PageSize != "" && !isValidPageSize(c.Print.PageSize) {
		return fmt.Errorf("%w: print.pageSize %q (must be one of %s)", ErrInvalidValue, c.Print.PageSize, strings.Join(ValidPageSizes, ", "))
	}
	if err := validateFieldLength("print.margin", c.Print.Margin, MaxMarginLength); err != nil {
		return err
	}
	if c.Print.Margin != "" && !marginPattern.MatchString(c.Print.Margin) {
		return fmt.Errorf("%w: print.margin %q (must be a CSS length such as 20mm)", ErrInvalidValue, c.Print.Margin)
	}
	if c.Print.Timeout < 0 || c.Print.Timeout > MaxPrintTimeout {
		return fmt.Errorf("%w: print.timeout %s (must be between 0 and %s)", ErrInvalidValue, c.Print.Timeout, MaxPrintTimeout)
	}

	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}
	return validateFieldLength("watch.file", c.Watch.File, MaxPathLength)
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

func isValidPageSize(size string) bool {
	for _, valid := range ValidPageSizes {
		if strings.EqualFold(size, valid) {
			return true
		}
	}
	return false
}

// YAML returns the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	return yamlutil.Marshal(c)
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields missing from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		resolved, err := resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
		configPath = resolved
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-mdpreview/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-mdpreview", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
