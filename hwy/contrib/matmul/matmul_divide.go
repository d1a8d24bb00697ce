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

import "github.com/ajroetker/go-matbench/hwy"

// MatMulDivideAndConquer accumulates A x B into C by recursive 2x2 block
// decomposition:
//
//	C00 += A00*B00 + A01*B10    C01 += A00*B01 + A01*B11
//	C10 += A10*B00 + A11*B10    C11 += A10*B01 + A11*B11
//
// Blocks are Views into the original buffers, so nothing is copied. Blocks
// of size threshold or smaller run a scalar (row, reduction, column) loop.
//
// Each output quadrant receives two products. They are computed in two
// phases separated by a join: first the A_0·B_0· terms, then the A_1·B_1·
// terms. The four products of a phase write disjoint quadrants; three run as
// tasks on the pool and one inline on the caller.
//
// n must be threshold times a power of two (see Validate).
func MatMulDivideAndConquer[T hwy.Floats](tasks *WorkersPool, a, b, c []T, n, threshold int) {
	checkBuffers(a, b, c, n)
	d := &divider[T]{tasks: tasks, threshold: threshold, leaf: scalarLeaf[T]}
	d.multiply(NewView(a, n), NewView(b, n), NewView(c, n))
}

// MatMulDivideAndConquerSIMD is MatMulDivideAndConquer with a vectorized
// leaf: for each (row, reduction) pair of the block, A[row, p] is broadcast
// and fused-multiply-added into 16 columns of C at a time (two vectors of
// hwy.Lanes).
//
// threshold must be a multiple of SIMDLeafMultiple.
//
// Only float32 built with GOEXPERIMENT=simd on an AVX2+FMA CPU runs native
// vector instructions (see IsNativeLeaf). Otherwise the leaf uses the
// portable hwy vectors, which Go compiles to per-lane loops, and the kernel
// is usually no faster than MatMulDivideAndConquer.
func MatMulDivideAndConquerSIMD[T hwy.Floats](tasks *WorkersPool, a, b, c []T, n, threshold int) {
	checkBuffers(a, b, c, n)
	if threshold%SIMDLeafMultiple != 0 {
		panic("matmul: SIMD leaf threshold must be a multiple of 16")
	}
	d := &divider[T]{tasks: tasks, threshold: threshold, leaf: simdLeafFor[T]()}
	d.multiply(NewView(a, n), NewView(b, n), NewView(c, n))
}

// divider holds the parameters shared by every level of the recursion.
type divider[T hwy.Floats] struct {
	tasks     *WorkersPool
	threshold int
	leaf      func(a, b, c View[T])
}

func (d *divider[T]) multiply(a, b, c View[T]) {
	if c.Size <= d.threshold {
		d.leaf(a, b, c)
		return
	}
	a00, a01, a10, a11 := a.Quadrants()
	b00, b01, b10, b11 := b.Quadrants()
	c00, c01, c10, c11 := c.Quadrants()

	g := NewTaskGroup(d.tasks)

	// Phase 1: A_0 B_0 terms.
	g.Go(func() { d.multiply(a00, b00, c00) })
	g.Go(func() { d.multiply(a00, b01, c01) })
	g.Go(func() { d.multiply(a10, b00, c10) })
	d.multiply(a10, b01, c11)
	g.Wait()

	// Phase 2: A_1 B_1 terms, into the quadrants written by phase 1.
	g.Go(func() { d.multiply(a01, b10, c00) })
	g.Go(func() { d.multiply(a01, b11, c01) })
	g.Go(func() { d.multiply(a11, b10, c10) })
	d.multiply(a11, b11, c11)
	g.Wait()
}
