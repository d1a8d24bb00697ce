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
	"github.com/ajroetker/go-matbench/hwy"
	"github.com/ajroetker/go-matbench/hwy/contrib/workerpool"
)

// MatMulTiled accumulates A x B into C tiling all three loops by tile.
//
// Each (row tile, column tile) pair of C is one pool task, so tasks never
// share output elements. Inside a task the reduction tiles are walked in
// order, and each tile triple runs the (row, reduction, column) loop. With
// three tiles fitting in cache, a tile of B is reused for every row of the
// A tile before eviction.
//
// tile need not divide n: edge tiles end at min(n, start+tile).
// Blocks until every tile task is done.
func MatMulTiled[T hwy.Floats](pool *workerpool.Pool, a, b, c []T, n, tile int) {
	checkBuffers(a, b, c, n)
	if tile <= 0 {
		panic("matmul: tile must be positive")
	}
	numTiles := (n + tile - 1) / tile
	pool.ParallelForGrid(numTiles, numTiles, func(rowTile, colTile int) {
		i0 := rowTile * tile
		iEnd := min(n, i0+tile)
		j0 := colTile * tile
		jEnd := min(n, j0+tile)

		for p0 := 0; p0 < n; p0 += tile {
			pEnd := min(n, p0+tile)
			for i := i0; i < iEnd; i++ {
				cRow := c[i*n+j0 : i*n+jEnd]
				for p := p0; p < pEnd; p++ {
					aip := a[i*n+p]
					bRow := b[p*n+j0 : p*n+jEnd]
					for j := range cRow {
						cRow[j] += aip * bRow[j]
					}
				}
			}
		}
	})
}
