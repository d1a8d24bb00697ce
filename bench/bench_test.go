// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ajroetker/go-matbench/bench/oracle"
	"github.com/ajroetker/go-matbench/hwy/contrib/matmul"
	"github.com/ajroetker/go-matbench/hwy/contrib/workerpool"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Size = 64
	cfg.Iterations = 2
	cfg.Warmup = 1
	cfg.Tile = 24
	cfg.Threshold = 16
	return cfg
}

func newTestRunner(t *testing.T) *Runner {
	r := NewRunner(4)
	t.Cleanup(r.Close)
	return r
}

func TestRun(t *testing.T) {
	r := newTestRunner(t)
	assert.Equal(t, 4, r.NumWorkers())
	for _, dtype := range []DType{Float32, Float64} {
		for _, verify := range []VerifyMode{VerifyChecksum, VerifyReference, VerifyNone} {
			for _, k := range matmul.Kernels() {
				t.Run(fmt.Sprintf("%s/%s/%s", dtype, verify, k), func(t *testing.T) {
					cfg := smallConfig()
					cfg.Kernel, cfg.DType, cfg.Verify = k, dtype, verify
					res := must.M1(r.Run(context.Background(), cfg))
					assert.Equal(t, k, res.Kernel)
					assert.Equal(t, 64, res.Size)
					assert.Equal(t, dtype, res.DType)
					assert.Equal(t, 2, res.Iterations)
					assert.NotEmpty(t, res.Dispatch)
					assert.LessOrEqual(t, res.Min, res.Mean)
					assert.LessOrEqual(t, res.Mean, res.Max)
				})
			}
		}
	}
}

func TestRunDetectsIncorrectResult(t *testing.T) {
	for _, verify := range []VerifyMode{VerifyChecksum, VerifyReference} {
		r := newTestRunner(t)
		calls := 0
		r.afterMultiply = func(c any) {
			calls++
			c.([]float32)[5] += 1
		}
		cfg := smallConfig()
		cfg.Verify = verify
		cfg.Kernel = matmul.Tiled
		res, err := r.Run(context.Background(), cfg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, oracle.ErrIncorrectResult), "got %v", err)
		assert.Equal(t, Result{}, res)
		assert.Equal(t, 1, calls, "run should stop at the first failed verification")

		var mismatch *oracle.MismatchError
		require.True(t, errors.As(err, &mismatch))
		assert.Equal(t, 0, mismatch.Row)
		assert.Equal(t, 5, mismatch.Col)
	}

	// With verification off the corruption goes unnoticed.
	r := newTestRunner(t)
	r.afterMultiply = func(c any) { c.([]float32)[5] += 1 }
	cfg := smallConfig()
	cfg.Verify = VerifyNone
	_, err := r.Run(context.Background(), cfg)
	assert.NoError(t, err)
}

func TestRunCancelled(t *testing.T) {
	r := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	r.afterMultiply = func(any) {
		calls++
		if calls == 2 {
			cancel()
		}
	}
	cfg := smallConfig()
	cfg.Iterations = 10
	_, err := r.Run(ctx, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Equal(t, 2, calls, "the call running when ctx was cancelled completes, no new call starts")
}

func TestRunCancelledBeforeStart(t *testing.T) {
	r := newTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.afterMultiply = func(any) { t.Error("no kernel call expected on a cancelled context") }
	_, err := r.Run(ctx, smallConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	assert.Contains(t, err.Error(), "filling inputs")
}

func TestFillRows(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Close()

	n := 7
	m := make([]float64, n*n)
	require.NoError(t, fillRows(context.Background(), pool, m, n, oracle.FillPatternARow[float64]))
	want := make([]float64, n*n)
	oracle.FillPatternA(want, n)
	assert.Equal(t, want, m)

	// Rows are skipped once the context is cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	var filled atomic.Int32
	err := fillRows(ctx, pool, make([]float32, 100*100), 100, func(row []float32, r int) {
		filled.Add(1)
		cancel()
	})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, filled.Load(), int32(100))
}

func TestRunRejectsPreconditions(t *testing.T) {
	r := newTestRunner(t)
	cfg := smallConfig()
	cfg.Size = 48
	cfg.Kernel = matmul.DivideAndConquer
	_, err := r.Run(context.Background(), cfg)
	assert.True(t, errors.Is(err, matmul.ErrPrecondition), "got %v", err)
}

func TestRunAll(t *testing.T) {
	r := newTestRunner(t)
	cfg := smallConfig()
	cfg.Size = 48 // 3 blocks of 16: the divide-and-conquer kernels are skipped.
	results, err := r.RunAll(context.Background(), cfg, matmul.Kernels())
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, matmul.Kernel(i), res.Kernel)
	}

	table := RenderTable(results)
	for _, want := range []string{"Kernel", "GFLOPS", "Speed-up", "naive", "reordered", "parallel", "tiled", "1.00x"} {
		assert.Contains(t, table, want)
	}
	assert.NotContains(t, table, "divide")
}

func TestRunAllStopsOnError(t *testing.T) {
	r := newTestRunner(t)
	r.afterMultiply = func(c any) { c.([]float32)[0] = -1 }
	results, err := r.RunAll(context.Background(), smallConfig(), matmul.Kernels())
	assert.True(t, errors.Is(err, oracle.ErrIncorrectResult))
	assert.Empty(t, results)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	for name, edit := range map[string]func(*Config){
		"size":       func(c *Config) { c.Size = 0 },
		"iterations": func(c *Config) { c.Iterations = 0 },
		"warmup":     func(c *Config) { c.Warmup = -1 },
		"workers":    func(c *Config) { c.Workers = -2 },
		"dtype":      func(c *Config) { c.DType = DType(7) },
		"verify":     func(c *Config) { c.Verify = "bitwise" },
		"tile":       func(c *Config) { c.Kernel, c.Tile = matmul.Tiled, 0 },
		"kernel":     func(c *Config) { c.Kernel = matmul.Kernel(6) },
	} {
		cfg := DefaultConfig()
		edit(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}

	cfg := DefaultConfig()
	cfg.Kernel, cfg.Threshold = matmul.DivideAndConquerSIMD, 24
	assert.True(t, errors.Is(cfg.Validate(), matmul.ErrPrecondition))
}

func TestParse(t *testing.T) {
	for in, want := range map[string]DType{"float32": Float32, "F32": Float32, "float64": Float64, " f64": Float64} {
		assert.Equal(t, want, must.M1(ParseDType(in)), in)
	}
	_, err := ParseDType("bfloat16")
	assert.Error(t, err)
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, 4, Float32.Size())

	assert.Equal(t, VerifyReference, must.M1(ParseVerifyMode("Reference")))
	_, err = ParseVerifyMode("")
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.235s", FormatDuration(1234567891*time.Nanosecond))
	assert.Equal(t, "12.346ms", FormatDuration(12345678*time.Nanosecond))
	assert.Equal(t, "950ns", FormatDuration(950*time.Nanosecond))
}

func TestPlotResults(t *testing.T) {
	results := []Result{
		{Kernel: matmul.Naive, Size: 64, Mean: 3 * time.Millisecond},
		{Kernel: matmul.Tiled, Size: 64, Mean: time.Millisecond},
	}
	for _, ext := range []string{".png", ".svg"} {
		path := filepath.Join(t.TempDir(), "bench"+ext)
		require.NoError(t, PlotResults(results, path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Error(t, PlotResults(nil, filepath.Join(t.TempDir(), "empty.png")))

	err := PlotResults(results, filepath.Join(t.TempDir(), "bench.unknown"))
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bench.unknown"))
}
