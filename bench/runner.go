// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package bench

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/ajroetker/go-matbench/bench/oracle"
	"github.com/ajroetker/go-matbench/hwy"
	"github.com/ajroetker/go-matbench/hwy/contrib/matmul"
	"github.com/ajroetker/go-matbench/hwy/contrib/workerpool"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"k8s.io/klog/v2"
)

// Runner runs benchmarks on a persistent set of workers.
type Runner struct {
	pool  *workerpool.Pool
	tasks *matmul.WorkersPool

	// afterMultiply, if set, is called with C after every kernel call.
	afterMultiply func(c any)
}

// NewRunner creates a Runner with the given number of workers, GOMAXPROCS if
// workers <= 0. Call Close when done.
func NewRunner(workers int) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{
		pool:  workerpool.New(workers),
		tasks: matmul.NewWorkersPoolWithMax(workers),
	}
}

// NumWorkers returns the number of workers of the Runner.
func (r *Runner) NumWorkers() int {
	return r.pool.NumWorkers()
}

// Close releases the workers.
func (r *Runner) Close() {
	r.pool.Close()
}

// Run allocates the matrices, runs cfg.Warmup untimed and cfg.Iterations
// timed calls of cfg.Kernel, and verifies each result. C is zeroed after
// every call.
//
// The first failed verification aborts the run with an error wrapping
// oracle.ErrIncorrectResult. ctx is checked between calls only.
func (r *Runner) Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if cfg.DType == Float64 {
		return run[float64](ctx, r, cfg)
	}
	return run[float32](ctx, r, cfg)
}

func run[T hwy.Floats](ctx context.Context, r *Runner, cfg Config) (Result, error) {
	n := cfg.Size
	opts := cfg.Options()
	opts.Pool = r.pool
	opts.Tasks = r.tasks

	dispatch := hwy.CurrentName()
	if cfg.Kernel == matmul.DivideAndConquerSIMD {
		dispatch = matmul.LeafImplementation[T]()
	}
	klog.Infof("Running kernel %d (%s): N=%s, %s, %s in matrices, dispatch %s",
		int(cfg.Kernel), cfg.Kernel, humanize.Comma(int64(n)), cfg.DType,
		humanize.IBytes(uint64(3*n*n*cfg.DType.Size())), dispatch)

	if r.tasks.IsEnabled() {
		klog.V(2).Infof("%d pool workers, task parallelism %d (%d tasks still running)",
			r.pool.NumWorkers(), r.tasks.MaxParallelism(), r.tasks.NumRunning())
	}

	a, b, c := make([]T, n*n), make([]T, n*n), make([]T, n*n)
	fillA := func(row []T, _ int) { oracle.Fill(row, T(cfg.FillA)) }
	fillB := func(row []T, _ int) { oracle.Fill(row, T(cfg.FillB)) }
	if cfg.Verify == VerifyReference {
		fillA, fillB = oracle.FillPatternARow[T], oracle.FillPatternBRow[T]
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fillRows(gctx, r.pool, a, n, fillA) })
	g.Go(func() error { return fillRows(gctx, r.pool, b, n, fillB) })
	if err := g.Wait(); err != nil {
		return Result{}, errors.WithMessage(err, "filling inputs")
	}

	var reference *mat.Dense
	if cfg.Verify == VerifyReference {
		reference = oracle.Reference(a, b, n)
	}
	want := oracle.Expected(T(cfg.FillA), T(cfg.FillB), n)
	verify := func() error {
		switch cfg.Verify {
		case VerifyChecksum:
			return oracle.CheckUniform(c, n, want)
		case VerifyReference:
			return oracle.CheckDense(reference, c, n, 0)
		}
		return nil
	}

	// call runs the kernel once and returns its duration, verified and with
	// C zeroed for the next call.
	call := func() (time.Duration, error) {
		if err := ctx.Err(); err != nil {
			return 0, errors.WithMessagef(err, "%s", cfg.Kernel)
		}
		start := time.Now()
		if err := matmul.Multiply(cfg.Kernel, a, b, c, n, opts); err != nil {
			return 0, err
		}
		elapsed := time.Since(start)
		if r.afterMultiply != nil {
			r.afterMultiply(c)
		}
		if err := verify(); err != nil {
			return 0, errors.WithMessagef(err, "kernel %s, N=%d", cfg.Kernel, n)
		}
		oracle.Zero(c)
		return elapsed, nil
	}

	for i := range cfg.Warmup {
		elapsed, err := call()
		if err != nil {
			return Result{}, err
		}
		klog.V(1).Infof("warm-up %d: %s", i, elapsed)
	}

	var bar *progressbar.ProgressBar
	if cfg.Progress {
		bar = progressbar.NewOptions(cfg.Iterations,
			progressbar.OptionSetDescription(cfg.Kernel.String()),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("calls"),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionClearOnFinish(),
		)
	}
	res := Result{
		Kernel:     cfg.Kernel,
		Size:       n,
		DType:      cfg.DType,
		Iterations: cfg.Iterations,
		Dispatch:   dispatch,
	}
	var total time.Duration
	for i := range cfg.Iterations {
		elapsed, err := call()
		if err != nil {
			return Result{}, err
		}
		klog.V(1).Infof("iteration %d: %s", i, elapsed)
		total += elapsed
		if i == 0 || elapsed < res.Min {
			res.Min = elapsed
		}
		res.Max = max(res.Max, elapsed)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	res.Mean = total / time.Duration(cfg.Iterations)
	if secs := res.Mean.Seconds(); secs > 0 {
		res.GFLOPS = 2 * float64(n) * float64(n) * float64(n) / secs / 1e9
	}
	klog.Infof("Kernel %s: mean %s over %d iterations (%.2f GFLOPS)", cfg.Kernel, res.Mean, res.Iterations, res.GFLOPS)
	return res, nil
}

// fillRows calls fill on every row of the n x n matrix m, in parallel on
// pool. It stops early and returns ctx.Err() if ctx is cancelled.
func fillRows[T hwy.Floats](ctx context.Context, pool *workerpool.Pool, m []T, n int, fill func(row []T, r int)) error {
	pool.ParallelFor(n, func(start, end int) {
		for row := start; row < end; row++ {
			if ctx.Err() != nil {
				return
			}
			fill(m[row*n:(row+1)*n], row)
		}
	})
	return ctx.Err()
}

// RunAll runs cfg once per kernel. Kernels whose preconditions fail for cfg
// are skipped with a warning; any other error stops the run and is returned
// along with the results so far.
func (r *Runner) RunAll(ctx context.Context, cfg Config, kernels []matmul.Kernel) ([]Result, error) {
	results := make([]Result, 0, len(kernels))
	for _, k := range kernels {
		cfg.Kernel = k
		res, err := r.Run(ctx, cfg)
		if errors.Is(err, matmul.ErrPrecondition) {
			klog.Warningf("Skipping kernel %s: %v", k, err)
			continue
		}
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
