package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-mdpreview/internal/clipboard"
	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/hints"
)

// Doctor statuses.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status    string        `json:"status"`
	Chrome    chromeInfo    `json:"chrome"`
	Clipboard clipboardInfo `json:"clipboard"`
	Env       envInfo       `json:"environment"`
	System    systemInfo    `json:"system"`
	Warnings  []string      `json:"warnings,omitempty"`
	Errors    []string      `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// clipboardInfo reports whether copy buttons reach the system clipboard.
type clipboardInfo struct {
	Available bool `json:"available"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found, 2 = bad flags.
func runDoctorCmd(args []string, env *Environment) int {
	fs := newFlagSet("doctor", printDoctorUsage, env.Stderr)
	jsonOutput := fs.Bool("json", false, "print results as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	result := runDoctor(env.Getenv, clipboard.NewSystem().Available())

	if *jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(getenv func(string) string, clipboardAvailable bool) *doctorResult {
	result := &doctorResult{
		Status: statusReady,
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  getenv("ROD_NO_SANDBOX"),
			BrowserBin: getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkClipboard(result, clipboardAvailable)
	checkEnvironment(result, getenv)
	checkSystem(result)

	if len(result.Errors) > 0 {
		result.Status = statusErrors
	} else if len(result.Warnings) > 0 {
		result.Status = statusWarnings
	}

	return result
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- path from LookPath or ROD_BROWSER_BIN
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkClipboard warns when copy buttons cannot reach the system clipboard.
func checkClipboard(result *doctorResult, available bool) {
	result.Clipboard.Available = available
	if !available {
		result.Warnings = append(result.Warnings,
			"No system clipboard. Copy buttons will not copy (install xclip, xsel or wl-clipboard)")
	}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	result.Env.CI = hints.Host{Getenv: getenv}.InCI()

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("MDPREVIEW_CONTAINER") == "1" {
		return true, "MDPREVIEW_CONTAINER=1"
	}
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used for printed pages is writable.
func checkSystem(result *doctorResult) {
	_, cleanup, err := fileutil.WriteTempFile("doctor", "html")
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", os.TempDir()))
		return
	}
	cleanup()
	result.System.TempWritable = true
}

// Line markers for the human-readable report.
const (
	markOK    = "[OK]"
	markWarn  = "[WARN]"
	markError = "[ERROR]"
)

// section prints a titled block of marked lines followed by a blank line.
func section(w io.Writer, title string, lines ...string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
	fmt.Fprintln(w)
}

func mark(m, format string, args ...any) string {
	return m + " " + fmt.Sprintf(format, args...)
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mdpreview doctor")
	fmt.Fprintln(w)

	var chrome []string
	if r.Chrome.Found {
		chrome = append(chrome, mark(markOK, "Found at %s", r.Chrome.Path))
		if r.Chrome.Version != "" {
			chrome = append(chrome, mark(markOK, "Version: %s", r.Chrome.Version))
		}
		sandbox := "enabled"
		if !r.Chrome.Sandbox {
			sandbox = "disabled (ROD_NO_SANDBOX=1)"
		}
		chrome = append(chrome, mark(markOK, "Sandbox: %s", sandbox))
	} else {
		chrome = append(chrome, mark(markError, "Not found"))
	}
	section(w, "Chrome/Chromium (PDF export)", chrome...)

	if r.Clipboard.Available {
		section(w, "Clipboard (copy buttons)", mark(markOK, "System clipboard available"))
	} else {
		section(w, "Clipboard (copy buttons)", mark(markWarn, "Not available, copy buttons stay on Copy"))
	}

	env := []string{mark(markOK, "Platform: %s/%s", r.Env.OS, r.Env.Arch)}
	if r.Env.Container {
		env = append(env, mark(markOK, "Container: detected (%s)", r.Env.ContainerHint))
	}
	if r.Env.CI {
		env = append(env, mark(markOK, "CI: detected"))
	}
	section(w, "Environment", env...)

	if r.System.TempWritable {
		section(w, "System", mark(markOK, "Temp directory: writable"))
	} else {
		section(w, "System", mark(markError, "Temp directory: not writable"))
	}

	warnings := make([]string, len(r.Warnings))
	for i, msg := range r.Warnings {
		warnings[i] = mark(markWarn, "%s", msg)
	}
	section(w, "Warnings:", warnings...)

	errs := make([]string, len(r.Errors))
	for i, msg := range r.Errors {
		errs[i] = mark(markError, "%s", msg)
	}
	section(w, "Errors:", errs...)

	switch r.Status {
	case statusReady:
		fmt.Fprintln(w, "Status: Ready")
	case statusWarnings:
		fmt.Fprintln(w, "Status: Ready with warnings")
	case statusErrors:
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
