package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/hints"
	"github.com/alnah/go-mdpreview/internal/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	env := DefaultEnv()

	// Configure GOMAXPROCS before the pool size is resolved. The message is
	// only shown with --verbose. Error ignored: maxprocs.Set only fails if
	// GOMAXPROCS env is invalid, in which case Go runtime defaults apply.
	logger := env.Logger
	if wantsVerbose(os.Args[1:]) {
		logger = logger.Level(zerolog.DebugLevel)
	}
	_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug().Msgf(format, args...)
	}))

	os.Exit(runMain(os.Args, env))
}

// runMain dispatches a command and returns the process exit code.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	command, rest := args[1], args[2:]
	var err error
	switch command {
	case "serve":
		err = runServe(ctx, rest, env)
	case "render":
		err = runRender(ctx, rest, env)
	case "print":
		err = runPrint(ctx, rest, env)
	case "config":
		err = runConfig(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "mdpreview %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "unknown command: %s\n", command)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}

	fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, env))
	if isFlagError(err) {
		return ExitUsage
	}
	return exitCodeFor(err)
}

// hintFor returns an actionable hint for well-known failures.
func hintFor(err error, env *Environment) string {
	switch {
	case errors.Is(err, mdpreview.ErrBrowserConnect):
		return hints.ForBrowserConnect(hostOf(env))
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, mdpreview.ErrRejectedFile):
		return hints.ForRejectedFile(mdpreview.DefaultExtensions)
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(userConfigPaths())
	case errors.Is(err, server.ErrListen):
		return hints.ForAddressInUse()
	case errors.Is(err, mdpreview.ErrInvalidAssetPath), errors.Is(err, mdpreview.ErrStyleNotFound):
		return hints.ForAssetPath()
	default:
		return ""
	}
}

// hostOf describes the machine env runs on.
func hostOf(env *Environment) hints.Host {
	container, _ := isContainer(env.Getenv)
	return hints.Host{Getenv: env.Getenv, Container: container, GOOS: runtime.GOOS}
}

// userConfigPaths lists where a config named "config" would be found
// in the user's config directory.
func userConfigPaths() []string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(dir, "go-mdpreview", "config.yaml")}
}

// isFlagError reports whether err came from pflag parsing rather than
// from a command.
func isFlagError(err error) bool {
	var notExist *flag.NotExistError
	if errors.As(err, &notExist) {
		return true
	}
	var invalid *flag.InvalidValueError
	if errors.As(err, &invalid) {
		return true
	}
	var syntax *flag.InvalidSyntaxError
	if errors.As(err, &syntax) {
		return true
	}
	var required *flag.ValueRequiredError
	return errors.As(err, &required)
}

// wantsVerbose reports whether -v or --verbose appears before "--".
func wantsVerbose(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}
	return false
}
