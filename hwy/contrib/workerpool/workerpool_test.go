// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	if pool.NumWorkers() != 4 {
		t.Errorf("NumWorkers() = %d, want 4", pool.NumWorkers())
	}
}

func TestNewDefault(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	if pool.NumWorkers() != runtime.GOMAXPROCS(0) {
		t.Errorf("NumWorkers() = %d, want %d", pool.NumWorkers(), runtime.GOMAXPROCS(0))
	}
}

// checkCoverage verifies each index was visited exactly once.
func checkCoverage(t *testing.T, visits []atomic.Int32) {
	t.Helper()
	for i := range visits {
		if got := visits[i].Load(); got != 1 {
			t.Errorf("index %d visited %d times, want 1", i, got)
		}
	}
}

func TestParallelFor(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	for _, n := range []int{1, 3, 4, 5, 100, 1001} {
		visits := make([]atomic.Int32, n)
		pool.ParallelFor(n, func(start, end int) {
			for i := start; i < end; i++ {
				visits[i].Add(1)
			}
		})
		checkCoverage(t, visits)
	}
}

func TestParallelForAtomic(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	n := 100
	results := make([]int, n)

	pool.ParallelForAtomic(n, func(i int) {
		results[i] = i * 2
	})

	for i := 0; i < n; i++ {
		if results[i] != i*2 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i*2)
		}
	}
}

func TestParallelForAtomicBatched(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	for _, tc := range []struct{ n, batch int }{
		{100, 10}, {100, 7}, {5, 1}, {5, 0}, {3, 64},
	} {
		visits := make([]atomic.Int32, tc.n)
		var maxBatch atomic.Int32
		pool.ParallelForAtomicBatched(tc.n, tc.batch, func(start, end int) {
			size := int32(end - start)
			for {
				cur := maxBatch.Load()
				if size <= cur || maxBatch.CompareAndSwap(cur, size) {
					break
				}
			}
			for i := start; i < end; i++ {
				visits[i].Add(1)
			}
		})
		checkCoverage(t, visits)
		if want := int32(max(tc.batch, 1)); maxBatch.Load() > want {
			t.Errorf("n=%d batch=%d: got a batch of %d items", tc.n, tc.batch, maxBatch.Load())
		}
	}
}

func TestParallelForGrid(t *testing.T) {
	pool := New(3)
	defer pool.Close()

	rows, cols := 5, 7
	visits := make([]atomic.Int32, rows*cols)
	pool.ParallelForGrid(rows, cols, func(row, col int) {
		if row < 0 || row >= rows || col < 0 || col >= cols {
			t.Errorf("cell (%d, %d) out of range", row, col)
			return
		}
		visits[row*cols+col].Add(1)
	})
	checkCoverage(t, visits)

	var called atomic.Bool
	pool.ParallelForGrid(0, cols, func(int, int) { called.Store(true) })
	if called.Load() {
		t.Error("ParallelForGrid with no rows should not call fn")
	}
}

func TestParallelForSmallN(t *testing.T) {
	pool := New(8)
	defer pool.Close()

	// Test with n smaller than workers
	n := 3
	var count atomic.Int32

	pool.ParallelFor(n, func(start, end int) {
		count.Add(int32(end - start))
	})

	if count.Load() != int32(n) {
		t.Errorf("count = %d, want %d", count.Load(), n)
	}
}

func TestParallelForZeroN(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	var called bool
	pool.ParallelFor(0, func(start, end int) {
		called = true
	})
	pool.ParallelForAtomicBatched(0, 4, func(start, end int) {
		called = true
	})

	if called {
		t.Error("ParallelFor with n=0 should not call fn")
	}
}

func TestCloseMultipleTimes(t *testing.T) {
	pool := New(4)
	pool.Close()
	pool.Close() // Should not panic
}

func TestClosedPoolFallback(t *testing.T) {
	pool := New(4)
	pool.Close()

	n := 100
	results := make([]int, n)

	// Should still work (sequential fallback)
	pool.ParallelFor(n, func(start, end int) {
		for i := start; i < end; i++ {
			results[i] = i * 2
		}
	})
	pool.ParallelForAtomicBatched(n, 8, func(start, end int) {
		if end-start > 8 {
			t.Errorf("sequential fallback batch [%d, %d) larger than 8", start, end)
		}
		for i := start; i < end; i++ {
			results[i]++
		}
	})

	for i := 0; i < n; i++ {
		if results[i] != i*2+1 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i*2+1)
		}
	}
}

func BenchmarkParallelFor(b *testing.B) {
	pool := New(0) // Use GOMAXPROCS
	defer pool.Close()

	n := 1000

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.ParallelFor(n, func(start, end int) {
			for j := start; j < end; j++ {
				_ = j * j
			}
		})
	}
}

func BenchmarkParallelForAtomicBatched(b *testing.B) {
	pool := New(0)
	defer pool.Close()

	n := 1000

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.ParallelForAtomicBatched(n, 10, func(start, end int) {
			for j := start; j < end; j++ {
				_ = j * j
			}
		})
	}
}
