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

// MatMulParallelRows accumulates A x B into C with the rows of C split in
// chunks of grain consecutive rows, handed out to the pool workers. Each
// chunk runs the reordered loop. Rows are disjoint, so no two workers ever
// write the same element.
//
// Blocks until every chunk is done. grain <= 0 is treated as 1.
func MatMulParallelRows[T hwy.Floats](pool *workerpool.Pool, a, b, c []T, n, grain int) {
	checkBuffers(a, b, c, n)
	pool.ParallelForAtomicBatched(n, grain, func(rowStart, rowEnd int) {
		reorderedRows(a, b, c, n, rowStart, rowEnd)
	})
}
