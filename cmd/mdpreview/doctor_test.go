package main

// Notes:
// - runDoctorCmd is tested through its output. Chrome detection depends on
//   the host, so assertions only rely on fields every host reports.
// - Container and CI detection use an injected getenv, so nothing touches
//   the process environment.

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_JSONOutput
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_JSONOutput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	exitCode := runDoctorCmd([]string{"--json"}, env.Environment)

	var result doctorResult
	if err := json.Unmarshal([]byte(env.stdout.String()), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput was: %s", err, env.stdout.String())
	}

	validStatuses := map[string]bool{statusReady: true, statusWarnings: true, statusErrors: true}
	if !validStatuses[result.Status] {
		t.Errorf("invalid status %q", result.Status)
	}
	if result.Status == statusErrors && exitCode != ExitGeneral {
		t.Errorf("exit code = %d for errors status, want %d", exitCode, ExitGeneral)
	}
	if result.Status != statusErrors && exitCode != ExitSuccess {
		t.Errorf("exit code = %d for %s status, want %d", exitCode, result.Status, ExitSuccess)
	}
	if result.Env.OS != runtime.GOOS || result.Env.Arch != runtime.GOARCH {
		t.Errorf("platform = %s/%s, want %s/%s", result.Env.OS, result.Env.Arch, runtime.GOOS, runtime.GOARCH)
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_HumanOutput
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_HumanOutput(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	runDoctorCmd(nil, env.Environment)

	output := env.stdout.String()
	for _, section := range []string{
		"mdpreview doctor",
		"Chrome/Chromium",
		"Clipboard",
		"Environment",
		"System",
		"Status:",
		runtime.GOOS + "/" + runtime.GOARCH,
	} {
		if !strings.Contains(output, section) {
			t.Errorf("output should contain %q", section)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRunDoctorCmd_Flags
// ---------------------------------------------------------------------------

func TestRunDoctorCmd_Flags(t *testing.T) {
	t.Parallel()

	t.Run("help", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(nil)
		if code := runDoctorCmd([]string{"--help"}, env.Environment); code != ExitSuccess {
			t.Errorf("exit code = %d, want %d", code, ExitSuccess)
		}
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()

		env := newTestEnv(nil)
		if code := runDoctorCmd([]string{"--fix"}, env.Environment); code != ExitUsage {
			t.Errorf("exit code = %d, want %d", code, ExitUsage)
		}
	})
}

// ---------------------------------------------------------------------------
// TestRunDoctor_Environment
// ---------------------------------------------------------------------------

func TestRunDoctor_Environment(t *testing.T) {
	t.Parallel()

	t.Run("container without sandbox override warns", func(t *testing.T) {
		t.Parallel()

		result := runDoctor(getenvFrom(map[string]string{"MDPREVIEW_CONTAINER": "1"}), true)
		if !result.Env.Container {
			t.Fatal("expected container to be detected")
		}
		if result.Env.ContainerHint != "MDPREVIEW_CONTAINER=1" {
			t.Errorf("ContainerHint = %q", result.Env.ContainerHint)
		}
		if !containsSubstring(result.Warnings, "ROD_NO_SANDBOX") {
			t.Errorf("warnings = %v, want a ROD_NO_SANDBOX warning", result.Warnings)
		}
	})

	t.Run("CI with sandbox disabled", func(t *testing.T) {
		t.Parallel()

		result := runDoctor(getenvFrom(map[string]string{"CI": "true", "ROD_NO_SANDBOX": "1"}), true)
		if !result.Env.CI {
			t.Error("expected CI to be detected")
		}
		if containsSubstring(result.Warnings, "ROD_NO_SANDBOX not set") {
			t.Errorf("unexpected sandbox warning: %v", result.Warnings)
		}
	})

	t.Run("missing clipboard warns", func(t *testing.T) {
		t.Parallel()

		result := runDoctor(getenvFrom(nil), false)
		if result.Clipboard.Available {
			t.Error("Clipboard.Available = true, want false")
		}
		if !containsSubstring(result.Warnings, "clipboard") {
			t.Errorf("warnings = %v, want a clipboard warning", result.Warnings)
		}
		if result.Status == statusReady {
			t.Error("status should not be ready with warnings")
		}
	})

	t.Run("browser binary that does not exist", func(t *testing.T) {
		t.Parallel()

		result := runDoctor(getenvFrom(map[string]string{"ROD_BROWSER_BIN": "/nonexistent/chrome"}), true)
		if result.Chrome.Found {
			t.Error("Chrome.Found = true, want false")
		}
		if result.Status != statusErrors {
			t.Errorf("status = %q, want %q", result.Status, statusErrors)
		}
	})

	t.Run("temp directory is writable", func(t *testing.T) {
		t.Parallel()

		result := runDoctor(getenvFrom(nil), true)
		if !result.System.TempWritable {
			t.Error("System.TempWritable = false, want true")
		}
	})
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
