// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"runtime"
	"strings"

	"github.com/alnah/go-mdpreview/internal/fileutil"
)

// Host describes the machine a hint is written for.
type Host struct {
	Getenv    func(string) string
	Container bool
	GOOS      string
}

// CurrentHost inspects the running process.
func CurrentHost() Host {
	return Host{
		Getenv:    os.Getenv,
		Container: os.Getenv("MDPREVIEW_CONTAINER") == "1" || fileutil.FileExists("/.dockerenv"),
		GOOS:      runtime.GOOS,
	}
}

func (h Host) getenv(key string) string {
	if h.Getenv == nil {
		return ""
	}
	return h.Getenv(key)
}

// ciVars are set by the CI services we recognize.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

// InCI reports whether one of the usual CI variables is set.
func (h Host) InCI() bool {
	for _, v := range ciVars {
		if h.getenv(v) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect suggests the rod variables that fix the usual launch
// failures on h, and falls back to the doctor command.
func ForBrowserConnect(h Host) string {
	var hints []string
	if (h.InCI() || h.Container) && h.getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 in containers and CI")
	}
	if h.getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to pick a Chrome binary")
	}
	hints = append(hints, "run 'mdpreview doctor'")
	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound points at --config, and at the user config file when it
// was one of the searched paths.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(p, "go-mdpreview") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForRejectedFile lists the accepted extensions.
func ForRejectedFile(extensions []string) string {
	if len(extensions) == 0 {
		return ""
	}
	return format("accepted extensions: " + strings.Join(extensions, ", "))
}

// ForClipboard names the utility the clipboard needs on goos.
func ForClipboard(goos string) string {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return format("install xclip, xsel or wl-clipboard")
	default:
		return ""
	}
}

// ForAddressInUse suggests another listen address.
func ForAddressInUse() string {
	return format("use --addr with a free port, or 127.0.0.1:0 to pick one")
}

// ForAssetPath describes the expected asset directory layout.
func ForAssetPath() string {
	return format("expected a readable directory containing styles/ and templates/")
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
