// Copyright 2025 The go-highway Authors. SPDX-License-Identifier: Apache-2.0

// Package workerpool provides a persistent, reusable worker pool for
// fork-join loops. A Pool is created once per benchmark run and reused by
// every kernel invocation, so the timed region never pays for goroutine
// start-up.
//
// Usage:
//
//	pool := workerpool.New(runtime.GOMAXPROCS(0))
//	defer pool.Close()
//
//	for range iterations {
//	    pool.ParallelForAtomicBatched(n, grain, func(start, end int) {
//	        processRows(start, end)
//	    })
//	}
//
// Every ParallelFor* call blocks until all of its work items completed. There
// is no ordering between items.
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent worker pool that can be reused across many parallel
// operations. Workers are spawned once at creation and reused.
type Pool struct {
	numWorkers int
	workC      chan workItem
	closeOnce  sync.Once
	closed     atomic.Bool
}

// workItem is one unit of a parallel loop, sent to a worker.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// New creates a new worker pool with the specified number of workers.
// Workers are spawned immediately and persist until Close is called.
// If numWorkers <= 0, uses GOMAXPROCS.
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		numWorkers: numWorkers,
		// Buffer enough for all workers to have pending work
		workC: make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

// worker is the main loop for each persistent worker goroutine.
func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close shuts down the worker pool. Pending work completes first.
// Calling Close multiple times is safe; a closed pool runs loops sequentially
// on the caller.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.workC)
	})
}

// run sends one closure per worker and waits for all of them.
func (p *Pool) run(workers int, fn func()) {
	var wg sync.WaitGroup
	wg.Add(workers)
	for range workers {
		p.workC <- workItem{fn: fn, barrier: &wg}
	}
	wg.Wait()
}

// ParallelFor executes fn over [0, n) split into one contiguous range per
// worker. Blocks until all work completes.
//
// fn receives (start, end) indices where work should process [start, end).
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	workers := min(p.numWorkers, n)
	if workers == 1 || p.closed.Load() {
		fn(0, n)
		return
	}

	// Ceil division so that all items are covered.
	chunkSize := (n + workers - 1) / workers
	var next atomic.Int64
	p.run(workers, func() {
		start := int(next.Add(1)-1) * chunkSize
		if start >= n {
			return
		}
		fn(start, min(start+chunkSize, n))
	})
}

// ParallelForAtomic executes fn for each index in [0, n), with workers
// grabbing the next index from a shared atomic counter. This balances load
// when the cost per item varies. Blocks until all work completes.
func (p *Pool) ParallelForAtomic(n int, fn func(i int)) {
	p.ParallelForAtomicBatched(n, 1, func(start, end int) {
		for i := start; i < end; i++ {
			fn(i)
		}
	})
}

// ParallelForAtomicBatched executes fn over [0, n) in batches of batchSize
// consecutive indices (the last batch may be shorter). Workers grab batches
// from a shared atomic counter. Blocks until all work completes.
//
// batchSize <= 0 is treated as 1.
func (p *Pool) ParallelForAtomicBatched(n int, batchSize int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	numBatches := (n + batchSize - 1) / batchSize
	workers := min(p.numWorkers, numBatches)
	if workers == 1 || p.closed.Load() {
		for start := 0; start < n; start += batchSize {
			fn(start, min(start+batchSize, n))
		}
		return
	}

	var nextBatch atomic.Int64
	p.run(workers, func() {
		for {
			start := int(nextBatch.Add(1)-1) * batchSize
			if start >= n {
				return
			}
			fn(start, min(start+batchSize, n))
		}
	})
}

// ParallelForGrid executes fn once for every cell (row, col) of a
// rows x cols grid. Cells are distributed one at a time, row-major.
// Blocks until all cells complete.
func (p *Pool) ParallelForGrid(rows, cols int, fn func(row, col int)) {
	if rows <= 0 || cols <= 0 {
		return
	}
	p.ParallelForAtomic(rows*cols, func(i int) {
		fn(i/cols, i%cols)
	})
}
