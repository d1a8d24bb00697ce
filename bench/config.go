// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package bench times the matmul kernels and verifies their output.
//
// A Runner owns the worker pools shared by every kernel invocation of a
// benchmark session:
//
//	r := bench.NewRunner(0)
//	defer r.Close()
//
//	cfg := bench.DefaultConfig()
//	cfg.Kernel = matmul.Tiled
//	res, err := r.Run(ctx, cfg)
package bench

import (
	"strings"

	"github.com/ajroetker/go-matbench/hwy/contrib/matmul"
	"github.com/pkg/errors"
)

// DType is the element type of the benchmarked matrices.
type DType int

const (
	Float32 DType = iota
	Float64
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return "unknown"
}

// Size returns the size in bytes of one element.
func (d DType) Size() int {
	if d == Float64 {
		return 8
	}
	return 4
}

// ParseDType accepts "float32"/"f32" and "float64"/"f64".
func ParseDType(s string) (DType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float32", "f32":
		return Float32, nil
	case "float64", "f64":
		return Float64, nil
	}
	return 0, errors.Errorf("unknown dtype %q (valid: float32, float64)", s)
}

// VerifyMode selects how each kernel result is checked.
type VerifyMode string

const (
	// VerifyChecksum fills A and B with constants and expects FillA*FillB*N
	// in every element of C.
	VerifyChecksum VerifyMode = "checksum"

	// VerifyReference fills A and B with a small-integer pattern and compares
	// C with an independent gonum product.
	VerifyReference VerifyMode = "reference"

	// VerifyNone skips verification.
	VerifyNone VerifyMode = "none"
)

// ParseVerifyMode validates s as a VerifyMode.
func ParseVerifyMode(s string) (VerifyMode, error) {
	switch m := VerifyMode(strings.ToLower(strings.TrimSpace(s))); m {
	case VerifyChecksum, VerifyReference, VerifyNone:
		return m, nil
	}
	return "", errors.Errorf("unknown verify mode %q (valid: %s, %s, %s)", s, VerifyChecksum, VerifyReference, VerifyNone)
}

// Config describes one benchmark run.
type Config struct {
	Kernel matmul.Kernel

	// Size is N, the side of the square matrices.
	Size int

	// Iterations is the number of timed kernel calls.
	Iterations int

	// Warmup calls run before the timed ones. They are verified, not timed.
	Warmup int

	DType DType

	// FillA and FillB are the constants of the checksum verification.
	FillA, FillB float64

	// Grain, Tile and Threshold are passed to the kernel, see matmul.Options.
	Grain, Tile, Threshold int

	// Workers sizes the Runner pools; 0 uses GOMAXPROCS.
	Workers int

	Verify VerifyMode

	// Progress displays a progress bar over the iterations.
	Progress bool
}

// DefaultConfig returns the configuration of a plain "matbench run".
func DefaultConfig() Config {
	opts := matmul.DefaultOptions()
	return Config{
		Kernel:     matmul.Naive,
		Size:       1024,
		Iterations: 1,
		DType:      Float32,
		FillA:      2,
		FillB:      3,
		Grain:      opts.Grain,
		Tile:       opts.Tile,
		Threshold:  opts.Threshold,
		Verify:     VerifyChecksum,
	}
}

// Options returns the kernel tunables of the configuration.
func (c Config) Options() matmul.Options {
	return matmul.Options{Grain: c.Grain, Tile: c.Tile, Threshold: c.Threshold}
}

// Validate checks the configuration, including the preconditions of the
// selected kernel (those errors wrap matmul.ErrPrecondition).
func (c Config) Validate() error {
	if c.Size < 1 {
		return errors.Errorf("size must be positive, got %d", c.Size)
	}
	if c.Iterations < 1 {
		return errors.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.Warmup < 0 {
		return errors.Errorf("warmup must be >= 0, got %d", c.Warmup)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.DType != Float32 && c.DType != Float64 {
		return errors.Errorf("invalid dtype %d", int(c.DType))
	}
	if _, err := ParseVerifyMode(string(c.Verify)); err != nil {
		return err
	}
	return matmul.Validate(c.Kernel, c.Size, c.Options())
}
