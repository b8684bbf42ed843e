package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
	if !cfg.Render.GFM || !cfg.Render.SoftLineBreaks {
		t.Error("Render.GFM and Render.SoftLineBreaks should default to true")
	}
	if cfg.Render.HighlightClassPrefix != "hljs language-" {
		t.Errorf("Render.HighlightClassPrefix = %q", cfg.Render.HighlightClassPrefix)
	}
	if cfg.Render.HighlightMode != HighlightModePull {
		t.Errorf("Render.HighlightMode = %q, want pull", cfg.Render.HighlightMode)
	}
	if strings.Join(cfg.Import.Extensions, ",") != ".md,.markdown" {
		t.Errorf("Import.Extensions = %v", cfg.Import.Extensions)
	}
	if cfg.Copy.ResetDelay != 2*time.Second {
		t.Errorf("Copy.ResetDelay = %v, want 2s", cfg.Copy.ResetDelay)
	}
	if cfg.Print.PageSize != "A4" || cfg.Print.Margin != "20mm" {
		t.Errorf("Print = %+v", cfg.Print)
	}
	if cfg.Assets.BasePath != "" || cfg.Watch.File != "" {
		t.Error("Assets.BasePath and Watch.File should default to empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestValidateFieldLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     string
		maxLength int
		wantErr   bool
	}{
		{"empty value is valid", "", 10, false},
		{"value at limit is valid", "1234567890", 10, false},
		{"value over limit returns error", "12345678901", 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := validateFieldLength("test.field", tt.value, tt.maxLength)
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Errorf("error = %v, want ErrFieldTooLong", err)
				}
				if err != nil && !strings.Contains(err.Error(), "test.field") {
					t.Errorf("error %q should name the field", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:   "mount mode is valid",
			mutate: func(c *Config) { c.Render.HighlightMode = HighlightModeMount },
		},
		{
			name:    "unknown highlight mode",
			mutate:  func(c *Config) { c.Render.HighlightMode = "push" },
			wantErr: ErrInvalidValue,
		},
		{
			name:   "class prefix with spaces and dashes",
			mutate: func(c *Config) { c.Render.HighlightClassPrefix = "code lang-" },
		},
		{
			name:    "class prefix the sanitizer would strip",
			mutate:  func(c *Config) { c.Render.HighlightClassPrefix = "lang:" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "class prefix with quotes",
			mutate:  func(c *Config) { c.Render.HighlightClassPrefix = `x" onclick="` },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "class prefix too long",
			mutate:  func(c *Config) { c.Render.HighlightClassPrefix = strings.Repeat("x", MaxClassPrefixLength+1) },
			wantErr: ErrFieldTooLong,
		},
		{
			name:    "extension without dot",
			mutate:  func(c *Config) { c.Import.Extensions = []string{"md"} },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "extension with path separator",
			mutate:  func(c *Config) { c.Import.Extensions = []string{".m/d"} },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "bare dot extension",
			mutate:  func(c *Config) { c.Import.Extensions = []string{"."} },
			wantErr: ErrInvalidValue,
		},
		{
			name:   "upper case extension",
			mutate: func(c *Config) { c.Import.Extensions = []string{".MD", ".txt"} },
		},
		{
			name:    "too many extensions",
			mutate:  func(c *Config) { c.Import.Extensions = make([]string, MaxExtensions+1) },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "negative reset delay",
			mutate:  func(c *Config) { c.Copy.ResetDelay = -time.Second },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "reset delay over a minute",
			mutate:  func(c *Config) { c.Copy.ResetDelay = 2 * time.Minute },
			wantErr: ErrInvalidValue,
		},
		{
			name:   "lower case page size",
			mutate: func(c *Config) { c.Print.PageSize = "letter" },
		},
		{
			name:    "unknown page size",
			mutate:  func(c *Config) { c.Print.PageSize = "tabloid" },
			wantErr: ErrInvalidValue,
		},
		{
			name:   "margin in inches",
			mutate: func(c *Config) { c.Print.Margin = "0.5in" },
		},
		{
			name:    "margin without unit",
			mutate:  func(c *Config) { c.Print.Margin = "20" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "margin with css injection",
			mutate:  func(c *Config) { c.Print.Margin = "1mm;}body{" },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "timeout too long",
			mutate:  func(c *Config) { c.Print.Timeout = time.Hour },
			wantErr: ErrInvalidValue,
		},
		{
			name:    "watch path too long",
			mutate:  func(c *Config) { c.Watch.File = strings.Repeat("a", MaxPathLength+1) },
			wantErr: ErrFieldTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	t.Run("empty name returns ErrEmptyConfigName", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
			t.Errorf("error = %v, want ErrEmptyConfigName", err)
		}
	})

	t.Run("valid file path loads config", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "test.yaml", `server:
  addr: "127.0.0.1:9999"
render:
  highlightMode: mount
  highlightStyle: github
copy:
  resetDelay: 500ms
print:
  pageSize: Letter
  margin: 1in
  timeout: 1m
import:
  extensions: [".md", ".mdx"]
watch:
  file: notes.md
`)

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.Server.Addr != "127.0.0.1:9999" {
			t.Errorf("Server.Addr = %q", cfg.Server.Addr)
		}
		if cfg.Render.HighlightMode != HighlightModeMount || cfg.Render.HighlightStyle != "github" {
			t.Errorf("Render = %+v", cfg.Render)
		}
		if cfg.Copy.ResetDelay != 500*time.Millisecond {
			t.Errorf("Copy.ResetDelay = %v, want 500ms", cfg.Copy.ResetDelay)
		}
		if cfg.Print.PageSize != "Letter" || cfg.Print.Margin != "1in" || cfg.Print.Timeout != time.Minute {
			t.Errorf("Print = %+v", cfg.Print)
		}
		if strings.Join(cfg.Import.Extensions, ",") != ".md,.mdx" {
			t.Errorf("Import.Extensions = %v", cfg.Import.Extensions)
		}
		if cfg.Watch.File != "notes.md" {
			t.Errorf("Watch.File = %q", cfg.Watch.File)
		}
	})

	t.Run("missing fields keep defaults", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "partial.yaml", "server:\n  open: true\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if !cfg.Server.Open {
			t.Error("Server.Open = false, want true")
		}
		if cfg.Server.Addr != DefaultAddr {
			t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
		}
		if !cfg.Render.GFM || cfg.Copy.ResetDelay != DefaultResetDelay {
			t.Errorf("defaults lost: %+v", cfg)
		}
	})

	t.Run("nonexistent file path returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadConfig("/nonexistent/path/config.yaml"); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("invalid YAML returns ErrConfigParse", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "invalid.yaml", "server: [unclosed")
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("unknown field returns ErrConfigParse in strict mode", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "unknown.yaml", "server:\n  addr: \":8080\"\nunknownField: x\n")
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid duration returns ErrConfigParse", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "duration.yaml", "copy:\n  resetDelay: soon\n")
		if _, err := LoadConfig(path); !errors.Is(err, ErrConfigParse) {
			t.Errorf("error = %v, want ErrConfigParse", err)
		}
	})

	t.Run("invalid value fails validation", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, "mode.yaml", "render:\n  highlightMode: both\n")
		if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("error = %v, want ErrInvalidValue", err)
		}
	})

	t.Run("unreadable file returns read error not ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("permission bits are not enforced")
		}

		path := writeConfig(t, "unreadable.yaml", "server:\n  open: true\n")
		if err := os.Chmod(path, 0000); err != nil {
			t.Fatalf("setup chmod: %v", err)
		}
		defer func() { _ = os.Chmod(path, 0600) }()

		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("expected error for unreadable file")
		}
		if errors.Is(err, ErrConfigNotFound) {
			t.Error("error should not be ErrConfigNotFound for permission error")
		}
	})
}

// Changes the working directory, so it does not run in parallel.
func TestLoadConfig_ResolvesName(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "myconfig.yml"), []byte("server:\n  addr: \":7000\"\n"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Chdir(dir)

	cfg, err := LoadConfig("myconfig")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want :7000", cfg.Server.Addr)
	}

	_, err = LoadConfig("missing")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("error = %v, want ErrConfigNotFound", err)
	}
	if !strings.Contains(err.Error(), "missing.yaml") || !strings.Contains(err.Error(), "go-mdpreview") {
		t.Errorf("error %q should list the tried paths", err)
	}
}

func TestConfig_YAML(t *testing.T) {
	t.Parallel()

	out, err := DefaultConfig().YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	for _, want := range []string{"server:", "addr: 127.0.0.1:8080", "resetDelay: 2s", "highlightMode: pull"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("YAML() = %q, want to contain %q", out, want)
		}
	}
}
