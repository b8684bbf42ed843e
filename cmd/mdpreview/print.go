package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/alnah/go-mdpreview"
	"github.com/alnah/go-mdpreview/internal/clipboard"
	"github.com/alnah/go-mdpreview/internal/config"
	"github.com/alnah/go-mdpreview/internal/fileutil"
	"github.com/alnah/go-mdpreview/internal/pipeline"
)

// Worker limits for --workers.
const (
	minWorkers = 1
	maxWorkers = mdpreview.MaxPoolSize
)

// FileToPrint is one input file and the PDF it produces.
type FileToPrint struct {
	InputPath  string
	OutputPath string
}

// PrintResult holds the outcome of a single file.
type PrintResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// runPrint prints each markdown file to PDF, sharing a pool of browsers.
func runPrint(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parsePrintFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(rest) == 0 {
		return ErrNoInput
	}
	if err := validateWorkers(f.workers); err != nil {
		return err
	}

	logger := commandLogger(env, f.common)
	cfg, envCfg, err := loadSettings(f.common, env, logger)
	if err != nil {
		return err
	}
	applyPageFlags(f.page, cfg)
	if f.assetPath != "" {
		cfg.Assets.BasePath = f.assetPath
	}
	if f.timeout != "" {
		d, err := time.ParseDuration(f.timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %q", ErrInvalidTimeout, f.timeout)
		}
		cfg.Print.Timeout = d
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	workers := f.workers
	if workers == 0 {
		workers = envCfg.Workers
	}

	styles, err := loadStyles(cfg)
	if err != nil {
		return err
	}
	page := pageSettings(cfg)
	if err := page.Validate(); err != nil {
		return err
	}

	size := mdpreview.ResolvePoolSize(workers)
	logger.Debug().Int("pool", size).Msg("starting browsers on demand")
	pool := mdpreview.NewPrinterPool(size, func() mdpreview.Printer {
		return env.NewPrinter(styles.PrintCSS(), page, cfg.Print.Timeout)
	})
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing browsers")
		}
	}()

	files := make([]FileToPrint, len(rest))
	for i, input := range rest {
		files[i] = FileToPrint{InputPath: input, OutputPath: resolveOutputPath(input, f.output)}
	}

	results := printBatch(ctx, pool, files, cfg, logger)
	failed, firstErr := printResults(results, f.common, env)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed: %w", failed, len(results), firstErr)
	}
	return nil
}

// validateWorkers checks the --workers range. Zero selects the size automatically.
func validateWorkers(n int) error {
	if n == 0 {
		return nil
	}
	if n < minWorkers || n > maxWorkers {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidWorkerCount, n, minWorkers, maxWorkers)
	}
	return nil
}

// resolveOutputPath returns the PDF path for input: next to it, or inside outputDir.
func resolveOutputPath(input, outputDir string) string {
	pdf := fileutil.ReplaceExt(input, ".pdf")
	if outputDir == "" {
		return pdf
	}
	return filepath.Join(outputDir, filepath.Base(pdf))
}

// printBatch processes files concurrently, one worker per pooled printer.
func printBatch(ctx context.Context, pool *mdpreview.PrinterPool, files []FileToPrint, cfg *config.Config, logger zerolog.Logger) []PrintResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]PrintResult, len(files))
	jobs := make(chan int, len(files))
	var wg sync.WaitGroup

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results[idx] = PrintResult{InputPath: files[idx].InputPath, Err: err}
					continue
				}
				results[idx] = printFile(ctx, pool, files[idx], cfg, logger)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// printFile imports, renders and prints one file through its own editor.
func printFile(ctx context.Context, printer mdpreview.Printer, f FileToPrint, cfg *config.Config, logger zerolog.Logger) (result PrintResult) {
	start := time.Now()
	result = PrintResult{InputPath: f.InputPath, OutputPath: f.OutputPath}
	defer func() { result.Duration = time.Since(start) }()

	opts := append(editorOptions(cfg, logger.With().Str("file", f.InputPath).Logger()),
		mdpreview.WithRenderer(pipeline.NewGoldmarkRenderer(renderConfig(cfg))),
		mdpreview.WithClipboard(&clipboard.Memory{}),
		mdpreview.WithPrinter(sharedPrinter{printer}),
	)
	editor, err := mdpreview.NewEditor(opts...)
	if err != nil {
		result.Err = err
		return result
	}
	defer func() { _ = editor.Close() }()

	if _, err := editor.OpenFile(ctx, f.InputPath); err != nil {
		result.Err = err
		return result
	}

	pdf, err := editor.Print(ctx)
	if err != nil {
		result.Err = err
		return result
	}

	if err := fileutil.WriteOutput(f.OutputPath, pdf); err != nil {
		result.Err = err
		return result
	}
	return result
}

// sharedPrinter lends a pooled printer to one editor; closing the editor
// leaves the pool running.
type sharedPrinter struct {
	mdpreview.Printer
}

func (sharedPrinter) Close() error { return nil }

// printResults outputs results and returns the failure count and first error.
func printResults(results []PrintResult, f commonFlags, env *Environment) (int, error) {
	var (
		failed   int
		firstErr error
	)

	for _, r := range results {
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if f.quiet {
			continue
		}
		if f.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !f.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return failed, firstErr
}
