package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// pageFlags holds printed page flags.
type pageFlags struct {
	size   string
	margin string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common    commonFlags
	addr      string
	watch     string
	assetPath string
}

// renderFlags holds all flags for the render command.
type renderFlags struct {
	common    commonFlags
	output    string
	page      bool
	assetPath string
	pageOpts  pageFlags
}

// printFlags holds all flags for the print command.
type printFlags struct {
	common    commonFlags
	output    string
	workers   int
	timeout   string
	assetPath string
	page      pageFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addPageFlags adds page layout flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: A4, Letter, Legal...")
	fs.StringVar(&f.margin, "margin", "", "page margin as a CSS length, e.g. 20mm")
}

// addAssetFlag adds the custom asset directory flag to a FlagSet.
func addAssetFlag(fs *flag.FlagSet, path *string) {
	fs.StringVar(path, "asset-path", "", "directory overriding embedded styles and templates")
}

func newFlagSet(name string, usage func(io.Writer), stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	return fs
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, []string, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", printServeUsage, stderr)

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default 127.0.0.1:8080)")
	fs.StringVarP(&f.watch, "watch", "W", "", "markdown file to load and follow")
	addAssetFlag(fs, &f.assetPath)
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseRenderFlags parses render command flags and returns positional args.
func parseRenderFlags(args []string, stderr io.Writer) (*renderFlags, []string, error) {
	f := &renderFlags{}
	fs := newFlagSet("render", printRenderUsage, stderr)

	fs.StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	fs.BoolVar(&f.page, "page", false, "write a standalone HTML page instead of the fragment")
	addPageFlags(fs, &f.pageOpts)
	addAssetFlag(fs, &f.assetPath)
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parsePrintFlags parses print command flags and returns positional args.
func parsePrintFlags(args []string, stderr io.Writer) (*printFlags, []string, error) {
	f := &printFlags{}
	fs := newFlagSet("print", printPrintUsage, stderr)

	fs.StringVarP(&f.output, "output", "o", "", "output directory (default next to each input)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel browsers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF generation timeout (e.g., 30s, 2m)")
	addPageFlags(fs, &f.page)
	addAssetFlag(fs, &f.assetPath)
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseConfigFlags parses config command flags.
func parseConfigFlags(args []string, stderr io.Writer) (*commonFlags, []string, error) {
	f := &commonFlags{}
	fs := newFlagSet("config", printConfigUsage, stderr)
	addCommonFlags(fs, f)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
