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

// MatMulNaive accumulates A x B into C with the textbook loop order:
// C[i,j] += sum(A[i,p] * B[p,j]) for p in 0..n-1.
//
// The innermost loop strides down a column of B, one cache line per
// element. It is the baseline for the other kernels.
func MatMulNaive[T hwy.Floats](a, b, c []T, n int) {
	checkBuffers(a, b, c, n)
	for i := range n {
		for j := range n {
			for p := range n {
				c[i*n+j] += a[i*n+p] * b[p*n+j]
			}
		}
	}
}

// MatMulReordered computes the same accumulation as MatMulNaive with the
// reduction loop hoisted above the column loop, so the innermost loop walks
// contiguous rows of B and C.
func MatMulReordered[T hwy.Floats](a, b, c []T, n int) {
	checkBuffers(a, b, c, n)
	reorderedRows(a, b, c, n, 0, n)
}

// reorderedRows runs the (row, reduction, column) loop over rows [rowStart, rowEnd).
func reorderedRows[T hwy.Floats](a, b, c []T, n, rowStart, rowEnd int) {
	for i := rowStart; i < rowEnd; i++ {
		cRow := c[i*n : (i+1)*n]
		for p := range n {
			aip := a[i*n+p]
			bRow := b[p*n : (p+1)*n]
			for j := range cRow {
				cRow[j] += aip * bRow[j]
			}
		}
	}
}
