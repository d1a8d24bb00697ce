// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package matmul

import (
	"math/bits"
	"strconv"
	"strings"
	"sync"

	"github.com/ajroetker/go-matbench/hwy"
	"github.com/ajroetker/go-matbench/hwy/contrib/workerpool"
	"github.com/pkg/errors"
)

// Kernel selects one of the matrix multiplication strategies. The numeric
// value is the kernel index used on the command line.
type Kernel int

const (
	// Naive is the (row, column, reduction) triple loop.
	Naive Kernel = iota

	// Reordered is the cache-aware (row, reduction, column) triple loop.
	Reordered

	// ParallelRows runs Reordered over row chunks on a worker pool.
	ParallelRows

	// Tiled blocks all three loops and parallelizes the output tile grid.
	Tiled

	// DivideAndConquer recurses over 2x2 blocks with a two-phase join.
	DivideAndConquer

	// DivideAndConquerSIMD is DivideAndConquer with a vectorized leaf.
	DivideAndConquerSIMD

	numKernels
)

var kernelNames = [numKernels]string{
	Naive:                "naive",
	Reordered:            "reordered",
	ParallelRows:         "parallel",
	Tiled:                "tiled",
	DivideAndConquer:     "divide",
	DivideAndConquerSIMD: "divide-simd",
}

// String returns the kernel name used on the command line.
func (k Kernel) String() string {
	if k < 0 || k >= numKernels {
		return "Kernel(" + strconv.Itoa(int(k)) + ")"
	}
	return kernelNames[k]
}

// IsValid reports whether k names a kernel.
func (k Kernel) IsValid() bool {
	return k >= 0 && k < numKernels
}

// Kernels returns all kernels, ordered by index.
func Kernels() []Kernel {
	all := make([]Kernel, numKernels)
	for i := range all {
		all[i] = Kernel(i)
	}
	return all
}

var (
	// ErrUnknownKernel is returned when a kernel index or name doesn't exist.
	ErrUnknownKernel = errors.New("unknown kernel")

	// ErrPrecondition is returned when sizes or parameters are incompatible
	// with the selected kernel.
	ErrPrecondition = errors.New("kernel precondition violated")
)

// ParseKernel accepts either a kernel index ("3") or a kernel name ("tiled").
func ParseKernel(s string) (Kernel, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if idx, err := strconv.Atoi(s); err == nil {
		if k := Kernel(idx); k.IsValid() {
			return k, nil
		}
		return 0, errors.Wrapf(ErrUnknownKernel, "index %d (valid: 0 to %d)", idx, numKernels-1)
	}
	for k, name := range kernelNames {
		if name == s {
			return Kernel(k), nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownKernel, "%q (valid: %s)", s, strings.Join(kernelNames[:], ", "))
}

// SIMDLeafMultiple is the block width multiple required by the vectorized
// leaf: each step processes two vectors of hwy.Lanes columns.
const SIMDLeafMultiple = 2 * hwy.Lanes

// Options holds the tunables of the parallel and blocked kernels.
type Options struct {
	// Grain is the number of consecutive rows per ParallelRows task.
	Grain int

	// Tile is the tile side of the Tiled kernel. It need not divide N.
	Tile int

	// Threshold is the block size at which the divide-and-conquer kernels
	// stop recursing. N must be Threshold times a power of two.
	Threshold int

	// Pool runs the ParallelRows and Tiled kernels. If nil a package-wide
	// pool with GOMAXPROCS workers is used.
	Pool *workerpool.Pool

	// Tasks schedules the divide-and-conquer tasks. If nil a package-wide
	// pool with GOMAXPROCS parallelism is used.
	Tasks *WorkersPool
}

// DefaultOptions returns the tunables used by the benchmark by default.
func DefaultOptions() Options {
	return Options{
		Grain:     1,
		Tile:      64,
		Threshold: 64,
	}
}

var (
	defaultPool  = sync.OnceValue(func() *workerpool.Pool { return workerpool.New(0) })
	defaultTasks = sync.OnceValue(NewWorkersPool)
)

func (o Options) pool() *workerpool.Pool {
	if o.Pool != nil {
		return o.Pool
	}
	return defaultPool()
}

func (o Options) tasks() *WorkersPool {
	if o.Tasks != nil {
		return o.Tasks
	}
	return defaultTasks()
}

// Validate checks that kernel k can multiply n x n matrices with opts.
// Errors wrap ErrPrecondition or ErrUnknownKernel.
func Validate(k Kernel, n int, opts Options) error {
	if !k.IsValid() {
		return errors.Wrapf(ErrUnknownKernel, "index %d", int(k))
	}
	if n < 1 {
		return errors.Wrapf(ErrPrecondition, "matrix size must be positive, got %d", n)
	}
	switch k {
	case ParallelRows:
		if opts.Grain < 1 {
			return errors.Wrapf(ErrPrecondition, "%s: grain must be >= 1, got %d", k, opts.Grain)
		}
	case Tiled:
		if opts.Tile < 1 {
			return errors.Wrapf(ErrPrecondition, "%s: tile must be >= 1, got %d", k, opts.Tile)
		}
	case DivideAndConquer, DivideAndConquerSIMD:
		if err := validateThreshold(k, n, opts.Threshold); err != nil {
			return err
		}
	}
	return nil
}

func validateThreshold(k Kernel, n, threshold int) error {
	if threshold < 1 {
		return errors.Wrapf(ErrPrecondition, "%s: threshold must be >= 1, got %d", k, threshold)
	}
	if k == DivideAndConquerSIMD && threshold%SIMDLeafMultiple != 0 {
		return errors.Wrapf(ErrPrecondition, "%s: threshold must be a multiple of %d, got %d",
			k, SIMDLeafMultiple, threshold)
	}
	if n < threshold || n%threshold != 0 {
		return errors.Wrapf(ErrPrecondition, "%s: size %d is not a multiple of threshold %d", k, n, threshold)
	}
	if blocks := n / threshold; bits.OnesCount(uint(blocks)) != 1 {
		return errors.Wrapf(ErrPrecondition, "%s: size %d is not threshold %d times a power of two", k, n, threshold)
	}
	return nil
}

// Multiply accumulates A x B into C (C += A*B) with kernel k, where all three
// are n x n row-major matrices. It validates the preconditions first and
// returns only after every task of the kernel has finished.
//
// C is not cleared: callers must zero it to get the plain product.
func Multiply[T hwy.Floats](k Kernel, a, b, c []T, n int, opts Options) error {
	if err := Validate(k, n, opts); err != nil {
		return err
	}
	for _, buf := range []struct {
		name string
		len  int
	}{{"A", len(a)}, {"B", len(b)}, {"C", len(c)}} {
		if buf.len < n*n {
			return errors.Wrapf(ErrPrecondition, "%s has %d elements, %dx%d needs %d", buf.name, buf.len, n, n, n*n)
		}
	}

	switch k {
	case Naive:
		MatMulNaive(a, b, c, n)
	case Reordered:
		MatMulReordered(a, b, c, n)
	case ParallelRows:
		MatMulParallelRows(opts.pool(), a, b, c, n, opts.Grain)
	case Tiled:
		MatMulTiled(opts.pool(), a, b, c, n, opts.Tile)
	case DivideAndConquer:
		MatMulDivideAndConquer(opts.tasks(), a, b, c, n, opts.Threshold)
	case DivideAndConquerSIMD:
		MatMulDivideAndConquerSIMD(opts.tasks(), a, b, c, n, opts.Threshold)
	}
	return nil
}

// checkBuffers panics if any of the matrices is too short for n x n.
func checkBuffers[T hwy.Floats](a, b, c []T, n int) {
	if len(a) < n*n {
		panic("matmul: A slice too short")
	}
	if len(b) < n*n {
		panic("matmul: B slice too short")
	}
	if len(c) < n*n {
		panic("matmul: C slice too short")
	}
}
