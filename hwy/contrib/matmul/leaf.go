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

// leafAVX2Float32 is the archsimd leaf, set by init() when the build and
// the CPU support it.
var leafAVX2Float32 func(a, b, c View[float32])

// LeafImplementation names the leaf used by DivideAndConquerSIMD for T:
// "archsimd-avx2" for the native AVX2 leaf, or "hwy-<level>" for the portable
// vectors. The portable leaf is a per-lane array loop compiled by Go, not
// native vector code: without archsimd, DivideAndConquerSIMD is not expected
// to beat DivideAndConquer.
func LeafImplementation[T hwy.Floats]() string {
	if IsNativeLeaf[T]() {
		return "archsimd-avx2"
	}
	return "hwy-" + hwy.CurrentName()
}

// IsNativeLeaf reports whether DivideAndConquerSIMD runs native vector
// instructions for T. It requires a build with GOEXPERIMENT=simd, an AVX2 and
// FMA capable CPU, and T = float32.
func IsNativeLeaf[T hwy.Floats]() bool {
	_, ok := any(leafAVX2Float32).(func(a, b, c View[T]))
	return ok && leafAVX2Float32 != nil
}

// simdLeafFor returns the fastest available vectorized leaf for T.
func simdLeafFor[T hwy.Floats]() func(a, b, c View[T]) {
	if leafAVX2Float32 != nil {
		if fn, ok := any(leafAVX2Float32).(func(a, b, c View[T])); ok {
			return fn
		}
	}
	if hwy.HasFMA() {
		return func(a, b, c View[T]) { vecLeaf(a, b, c, hwy.MulAdd[T]) }
	}
	// math.FMA is emulated in software without hardware FMA.
	return func(a, b, c View[T]) { vecLeaf(a, b, c, mulThenAdd[T]) }
}

// mulThenAdd computes a*b + c with two roundings.
func mulThenAdd[T hwy.Floats](a, b, c hwy.Vec[T]) hwy.Vec[T] {
	return hwy.Add(hwy.Mul(a, b), c)
}

// scalarLeaf accumulates a x b into c with the (row, reduction, column) loop.
func scalarLeaf[T hwy.Floats](a, b, c View[T]) {
	size := c.Size
	for i := range size {
		aRow := a.RowSlice(i)
		cRow := c.RowSlice(i)
		for p := range size {
			aip := aRow[p]
			bRow := b.RowSlice(p)
			for j := range cRow {
				cRow[j] += aip * bRow[j]
			}
		}
	}
}

// vecLeaf accumulates a x b into c using hwy vectors, 2*hwy.Lanes columns
// per step, combining them with madd. c.Size must be a multiple of
// 2*hwy.Lanes.
func vecLeaf[T hwy.Floats](a, b, c View[T], madd func(a, b, c hwy.Vec[T]) hwy.Vec[T]) {
	const lanes = hwy.Lanes
	size := c.Size
	for i := range size {
		aRow := a.RowSlice(i)
		cRow := c.RowSlice(i)
		for p := range size {
			vA := hwy.Set(aRow[p])
			bRow := b.RowSlice(p)
			for j := 0; j < size; j += 2 * lanes {
				vC0 := madd(vA, hwy.Load(bRow[j:]), hwy.Load(cRow[j:]))
				hwy.Store(vC0, cRow[j:])

				vC1 := madd(vA, hwy.Load(bRow[j+lanes:]), hwy.Load(cRow[j+lanes:]))
				hwy.Store(vC1, cRow[j+lanes:])
			}
		}
	}
}
