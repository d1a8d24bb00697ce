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

// Package matmul provides dense square matrix multiplication kernels, from a
// naive triple loop to a task-parallel divide-and-conquer with a SIMD leaf.
//
// Every kernel accumulates into its output (C += A*B) and works on N x N
// row-major float32 or float64 matrices.
//
// Example usage:
//
//	a := make([]float32, n*n) // row-major
//	b := make([]float32, n*n)
//	c := make([]float32, n*n) // zeroed output
//
//	if err := matmul.Multiply(matmul.Tiled, a, b, c, n, matmul.DefaultOptions()); err != nil {
//	    return err
//	}
//
// The kernels are:
//   - Naive: (row, column, reduction) loops.
//   - Reordered: (row, reduction, column) loops, streaming rows of B and C.
//   - ParallelRows: Reordered over chunks of rows on a workerpool.Pool.
//   - Tiled: all three loops blocked, one task per output tile.
//   - DivideAndConquer: recursive 2x2 blocks, two fork-join phases per level.
//   - DivideAndConquerSIMD: the same recursion with a vectorized leaf, using
//     archsimd AVX2 for float32 when built with GOEXPERIMENT=simd and the hwy
//     portable vectors otherwise.
package matmul
