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

//go:build amd64 && goexperiment.simd

// NOTE: This file is named "z_..." so its init() runs after the other files
// of the package. Go executes init() functions in lexicographic filename
// order within a package.

package matmul

import (
	"simd/archsimd"

	"github.com/ajroetker/go-matbench/hwy"
)

func init() {
	level := hwy.CurrentLevel()
	if (level == hwy.DispatchAVX2 || level == hwy.DispatchAVX512) && hwy.HasFMA() && archsimd.X86.AVX2() {
		leafAVX2Float32 = leafAVX2
	}
}

// leafAVX2 is the float32 vectorized leaf on 256-bit registers:
// broadcast A[i,p], then two 8-wide fused multiply-adds per 16 columns.
func leafAVX2(a, b, c View[float32]) {
	size := c.Size
	for i := range size {
		aRow := a.RowSlice(i)
		cRow := c.RowSlice(i)
		for p := range size {
			vA := archsimd.BroadcastFloat32x8(aRow[p])
			bRow := b.RowSlice(p)
			for j := 0; j < size; j += 16 {
				vB0 := archsimd.LoadFloat32x8Slice(bRow[j:])
				vC0 := archsimd.LoadFloat32x8Slice(cRow[j:])
				vA.MulAdd(vB0, vC0).StoreSlice(cRow[j:])

				vB1 := archsimd.LoadFloat32x8Slice(bRow[j+8:])
				vC1 := archsimd.LoadFloat32x8Slice(cRow[j+8:])
				vA.MulAdd(vB1, vC1).StoreSlice(cRow[j+8:])
			}
		}
	}
}
