package engine

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/patcheck/internal/aggregate"
	"github.com/roach88/patcheck/internal/assoc"
	"github.com/roach88/patcheck/internal/extract"
	"github.com/roach88/patcheck/internal/ir"
	"github.com/roach88/patcheck/internal/layout"
	"github.com/roach88/patcheck/internal/validate"
)

// Engine validates layout files against a declared rule set.
//
// Thread-safety: an Engine is immutable after New and Run may be called
// from several goroutines at once; each call has its own accumulator.
type Engine struct {
	rules   []ir.RuleSpec
	conv    extract.Convention
	decoder layout.Decoder
	workers int
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithConvention sets the (layer, purpose) role convention.
func WithConvention(c extract.Convention) Option {
	return func(e *Engine) {
		e.conv = c
	}
}

// WithWorkers bounds the number of files processed at once. Values below
// one are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.workers = n
		}
	}
}

// WithDecoder sets the layout decoder. The default is layout.NewRegistry().
func WithDecoder(d layout.Decoder) Option {
	return func(e *Engine) {
		e.decoder = d
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine for the rules, kept in declaration order.
func New(rules []ir.RuleSpec, opts ...Option) *Engine {
	e := &Engine{
		rules:   append([]ir.RuleSpec(nil), rules...),
		conv:    extract.DefaultConvention(),
		decoder: layout.NewRegistry(),
		workers: runtime.NumCPU(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the declared rules.
func (e *Engine) Rules() []ir.RuleSpec {
	return e.rules
}

// Run processes files and returns the aggregate over every decoded cell.
// Decode and cell failures are reported as diagnostics in the result.
// Run returns ErrNoUsableInput when files is empty or no cell of any file
// could be processed; in the latter case the result is still returned so
// its diagnostics can be reported. A cancelled ctx yields the context error.
func (e *Engine) Run(ctx context.Context, files []string) (*aggregate.Result, error) {
	if len(files) == 0 {
		return nil, ErrNoUsableInput
	}

	acc := aggregate.NewAccumulator(e.rules)
	var decoded, processed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, file := range files {
		g.Go(func() error {
			cells, ok, err := e.processFile(gctx, acc, file)
			if ok {
				decoded.Add(1)
			}
			processed.Add(int64(cells))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := acc.Result()
	if processed.Load() == 0 {
		e.logger.Warn("no usable input", "files", len(files), "decoded", decoded.Load())
		return result, ErrNoUsableInput
	}

	tot := result.Totals()
	e.logger.Info("run complete",
		"files", len(files),
		"decoded", decoded.Load(),
		"cells", processed.Load(),
		"patterns", tot.Patterns,
		"fail", tot.Fail,
		"diagnostics", len(result.Diagnostics))
	return result, nil
}

// processFile decodes one file and processes its cells in order. It
// reports how many cells were processed and whether the file decoded.
// Only cancellation is returned as an error; everything else becomes a
// diagnostic.
func (e *Engine) processFile(ctx context.Context, acc *aggregate.Accumulator, file string) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	e.logger.Info("processing layout", "file", file)
	lib, err := e.decoder.Decode(ctx, file)
	if err != nil {
		if ctx.Err() != nil {
			return 0, false, ctx.Err()
		}
		derr := ir.NewDecodeError(file, err)
		e.logger.Warn("layout skipped", "file", file, "error", derr)
		acc.Fail(file, "", derr)
		return 0, false, nil
	}
	acc.AddFile(file)

	processed := 0
	for _, cell := range lib.Cells {
		if err := ctx.Err(); err != nil {
			return processed, true, err
		}

		res, err := e.ProcessCell(file, cell)
		if err != nil {
			e.logger.Warn("cell skipped", "file", file, "cell", cell.Name, "error", err)
			acc.Fail(file, cell.Name, err)
			continue
		}
		for _, w := range res.Warnings {
			e.logger.Warn("cell warning", "file", file, "cell", cell.Name, "code", w.Code, "message", w.Message)
		}
		e.logger.Debug("cell processed", "file", file, "cell", cell.Name,
			"layers", res.Layers, "rules", len(res.Tallies))
		acc.Add(res)
		processed++
	}
	return processed, true, nil
}

// ProcessCell computes the per-rule tallies of one cell. It has no side
// effects. The error is an *ir.Error when the cell must be skipped.
func (e *Engine) ProcessCell(file string, cell ir.Cell) (aggregate.CellResult, error) {
	res := aggregate.CellResult{
		File:    file,
		Cell:    cell.Name,
		Tallies: make(map[string]ir.Tally),
	}

	m := extract.Extract(cell, e.conv)
	res.Layers = m.Layers()
	a, err := assoc.Associate(m)
	if err != nil {
		return res, err
	}
	res.Warnings = a.Warnings

	for _, rule := range a.Rules {
		res.Tallies[rule] = validate.Validate(a.For(rule), m.ErrorMarkers)
	}
	return res, nil
}
