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
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkersPool bounds the number of goroutines running recursive kernel
// tasks. Unlike workerpool.Pool it never queues: a task either starts right
// away or the caller runs it inline, so a task may itself spawn and wait for
// sub-tasks without deadlocking the pool.
//
// This is inspired by gomlx's workerspool implementation for packgemm.
type WorkersPool struct {
	// maxParallelism is the soft target for parallel workers.
	// 0 = disabled, -1 = unlimited, >0 = limited
	maxParallelism int

	mu         sync.Mutex
	numRunning int

	// extraParallelism temporarily increases when a worker sleeps
	extraParallelism atomic.Int32
}

// NewWorkersPool creates a new pool with default parallelism (GOMAXPROCS).
func NewWorkersPool() *WorkersPool {
	return NewWorkersPoolWithMax(runtime.GOMAXPROCS(0))
}

// NewWorkersPoolWithMax creates a pool with specified max parallelism.
func NewWorkersPoolWithMax(maxParallelism int) *WorkersPool {
	return &WorkersPool{
		maxParallelism: maxParallelism,
	}
}

// IsEnabled returns whether parallelism is enabled.
func (p *WorkersPool) IsEnabled() bool {
	return p.maxParallelism != 0
}

// MaxParallelism returns the configured max parallelism.
func (p *WorkersPool) MaxParallelism() int {
	return p.maxParallelism
}

// NumRunning returns the number of tasks currently running on their own
// goroutine.
func (p *WorkersPool) NumRunning() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.numRunning
}

// lockedIsFull returns whether all workers are busy (must hold lock).
func (p *WorkersPool) lockedIsFull() bool {
	if p.maxParallelism == 0 {
		return true // disabled
	}
	if p.maxParallelism < 0 {
		return false // unlimited
	}
	return p.numRunning >= p.maxParallelism+int(p.extraParallelism.Load())
}

// lockedRunTask starts a task in a goroutine (must hold lock).
func (p *WorkersPool) lockedRunTask(task func()) {
	p.numRunning++
	go func() {
		task()
		p.mu.Lock()
		p.numRunning--
		p.mu.Unlock()
	}()
}

// StartIfAvailable runs the task in a new goroutine if workers are available.
// Returns true if task was started, false if pool is full.
//
// It's up to the caller to synchronize the end of the task.
func (p *WorkersPool) StartIfAvailable(task func()) bool {
	if p.maxParallelism < 0 {
		// Unlimited: always start
		go task()
		return true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lockedIsFull() {
		return false
	}

	p.lockedRunTask(task)
	return true
}

// WorkerIsAsleep indicates a worker is waiting and temporarily
// increases available parallelism. Call WorkerRestarted when done.
func (p *WorkersPool) WorkerIsAsleep() {
	p.extraParallelism.Add(1)
}

// WorkerRestarted indicates a sleeping worker is active again.
func (p *WorkersPool) WorkerRestarted() {
	p.extraParallelism.Add(-1)
}

// TaskGroup is a fork-join group of tasks scheduled on a WorkersPool.
//
// Go starts a task on its own goroutine when the pool has room and otherwise
// runs it inline before returning. Wait blocks until every task started since
// the previous Wait has finished, after which the group can be reused for the
// next phase.
//
// The zero value is not usable; create one with NewTaskGroup.
type TaskGroup struct {
	pool *WorkersPool
	wg   sync.WaitGroup
}

// NewTaskGroup returns a TaskGroup scheduling on pool. A nil pool runs every
// task inline.
func NewTaskGroup(pool *WorkersPool) *TaskGroup {
	if pool == nil {
		pool = NewWorkersPoolWithMax(0)
	}
	return &TaskGroup{pool: pool}
}

// Go runs task, in the background if possible.
func (g *TaskGroup) Go(task func()) {
	g.wg.Add(1)
	if g.pool.StartIfAvailable(func() {
		defer g.wg.Done()
		task()
	}) {
		return
	}
	task()
	g.wg.Done()
}

// Wait blocks until all tasks of the group have finished. While waiting the
// caller does not count against the pool's parallelism.
func (g *TaskGroup) Wait() {
	g.pool.WorkerIsAsleep()
	g.wg.Wait()
	g.pool.WorkerRestarted()
}
