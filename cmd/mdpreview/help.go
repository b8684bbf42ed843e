package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpreview <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Open the live preview editor in the browser")
	fmt.Fprintln(w, "  render     Render a markdown file to HTML")
	fmt.Fprintln(w, "  print      Print markdown files to PDF")
	fmt.Fprintln(w, "  config     Show the effective configuration")
	fmt.Fprintln(w, "  doctor     Check system requirements")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdpreview help <command>' for details on a specific command.")
}

func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpreview serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve the two-pane editor: markdown on the left, the live preview on")
	fmt.Fprintln(w, "the right, with copy buttons on code blocks, file upload and PDF export.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default 127.0.0.1:8080)")
	fmt.Fprintln(w, "  -W, --watch <file>        Load a markdown file and reload it on change")
	fmt.Fprintln(w, "      --asset-path <dir>    Override embedded styles and templates")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printRenderUsage prints usage for the render command.
func printRenderUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpreview render <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render a markdown file to the HTML shown in the preview pane.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file (default stdout)")
	fmt.Fprintln(w, "      --page                Write a standalone page with styles")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size for --page: A4, Letter, Legal...")
	fmt.Fprintln(w, "      --margin <len>        Page margin for --page, e.g. 20mm")
	fmt.Fprintln(w, "      --asset-path <dir>    Override embedded styles")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printPrintUsage prints usage for the print command.
func printPrintUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpreview print <file>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print markdown files to PDF through a headless browser.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default next to each input)")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel browsers (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <d>         PDF generation timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -p, --page-size <s>       Page size: A4, Letter, Legal...")
	fmt.Fprintln(w, "      --margin <len>        Margin as a CSS length, e.g. 20mm")
	fmt.Fprintln(w, "      --asset-path <dir>    Override embedded styles")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpreview config [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration after applying the config file and")
	fmt.Fprintln(w, "MDPREVIEW_* environment variables.")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpreview doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Chrome, the clipboard and the environment.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "serve":
		printServeUsage(env.Stdout)
	case "render":
		printRenderUsage(env.Stdout)
	case "print":
		printPrintUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdpreview version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdpreview help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
