package mdpreview

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// PrinterPool manages printers for batch export. Each printer owns its
// own browser, so jobs print in parallel. Printers are created lazily on
// first acquire to avoid startup delay.
type PrinterPool struct {
	size     int
	factory  func() Printer
	printers []Printer
	sem      chan Printer
	mu       sync.Mutex
	created  int
	closed   bool
}

// NewPrinterPool creates a pool with capacity for n printers built by factory.
func NewPrinterPool(n int, factory func() Printer) *PrinterPool {
	if n < 1 {
		n = 1
	}

	return &PrinterPool{
		size:     n,
		factory:  factory,
		printers: make([]Printer, 0, n),
		sem:      make(chan Printer, n),
	}
}

// Acquire gets a printer from the pool, creating one if needed.
// Blocks until a printer is released or ctx is done.
func (p *PrinterPool) Acquire(ctx context.Context) (Printer, error) {
	select {
	case pr, ok := <-p.sem:
		if !ok {
			return nil, ErrPrinterClosed
		}
		return pr, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPrinterClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create new printer outside the lock
		pr := p.factory()

		p.mu.Lock()
		p.printers = append(p.printers, pr)
		p.mu.Unlock()

		return pr, nil
	}
	p.mu.Unlock()

	select {
	case pr, ok := <-p.sem:
		if !ok {
			return nil, ErrPrinterClosed
		}
		return pr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a printer to the pool.
// Holding the lock while sending is safe: the channel has room for every printer.
func (p *PrinterPool) Release(pr Printer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.sem <- pr
}

// Print acquires a printer, prints job and releases the printer.
func (p *PrinterPool) Print(ctx context.Context, job PrintJob) ([]byte, error) {
	pr, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(pr)
	return pr.Print(ctx, job)
}

// Close releases all browser resources.
// Returns an aggregated error if multiple printers fail to close.
func (p *PrinterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	printers := p.printers
	p.mu.Unlock()

	var errs []error
	for _, pr := range printers {
		if err := pr.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *PrinterPool) Size() int {
	return p.size
}

// Compile-time interface check: a pool can stand in for a single printer.
var _ Printer = (*PrinterPool)(nil)

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}
