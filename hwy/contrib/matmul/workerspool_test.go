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
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestWorkersPoolBasic(t *testing.T) {
	pool := NewWorkersPoolWithMax(4)

	if !pool.IsEnabled() {
		t.Error("pool should be enabled")
	}
	if pool.MaxParallelism() != 4 {
		t.Errorf("MaxParallelism = %d, want 4", pool.MaxParallelism())
	}
	if unlimited := NewWorkersPoolWithMax(-1); !unlimited.IsEnabled() {
		t.Error("unlimited pool should be enabled")
	}
}

func TestWorkersPoolDisabled(t *testing.T) {
	pool := NewWorkersPoolWithMax(0)

	if pool.IsEnabled() {
		t.Error("pool should be disabled")
	}

	if pool.StartIfAvailable(func() { t.Error("this should not run") }) {
		t.Error("disabled pool should never start a task")
	}
}

func TestWorkersPoolStartIfAvailable(t *testing.T) {
	pool := NewWorkersPoolWithMax(2)
	blocker := make(chan struct{})

	// Start 2 tasks that block
	for i := range 2 {
		if !pool.StartIfAvailable(func() { <-blocker }) {
			t.Errorf("task %d should have started", i)
		}
	}
	if pool.NumRunning() != 2 {
		t.Errorf("NumRunning = %d, want 2", pool.NumRunning())
	}

	// Third should fail (pool full)
	if pool.StartIfAvailable(func() { t.Error("this should not run") }) {
		t.Error("third task should not have started")
	}

	// A sleeping worker lends its slot.
	pool.WorkerIsAsleep()
	var lent sync.WaitGroup
	lent.Add(1)
	if !pool.StartIfAvailable(lent.Done) {
		t.Error("task should have started on the slot of a sleeping worker")
	}
	lent.Wait()
	pool.WorkerRestarted()

	close(blocker)
	waitFor(t, "blocked tasks to finish", func() bool { return pool.NumRunning() == 0 })

	var ran sync.WaitGroup
	ran.Add(1)
	if !pool.StartIfAvailable(ran.Done) {
		t.Error("task should have started after unblock")
	}
	ran.Wait()
}

func TestTaskGroupInline(t *testing.T) {
	// A nil pool runs everything on the caller, in order.
	g := NewTaskGroup(nil)
	var order []int
	for i := range 4 {
		g.Go(func() { order = append(order, i) })
	}
	g.Wait()
	for i, got := range order {
		if got != i {
			t.Fatalf("inline order = %v, want [0 1 2 3]", order)
		}
	}
}

func TestTaskGroupPhases(t *testing.T) {
	for _, parallelism := range []int{0, 1, 3, -1} {
		pool := NewWorkersPoolWithMax(parallelism)
		g := NewTaskGroup(pool)

		var phase1, phase2 atomic.Int32
		for range 3 {
			g.Go(func() {
				time.Sleep(time.Millisecond)
				phase1.Add(1)
			})
		}
		phase1.Add(1)
		g.Wait()
		if got := phase1.Load(); got != 4 {
			t.Errorf("parallelism=%d: %d phase 1 tasks done after Wait, want 4", parallelism, got)
		}

		for range 3 {
			g.Go(func() {
				if phase1.Load() != 4 {
					t.Errorf("parallelism=%d: phase 2 started before phase 1 finished", parallelism)
				}
				phase2.Add(1)
			})
		}
		phase2.Add(1)
		g.Wait()
		if got := phase2.Load(); got != 4 {
			t.Errorf("parallelism=%d: %d phase 2 tasks done after Wait, want 4", parallelism, got)
		}
	}
}

func TestTaskGroupNested(t *testing.T) {
	// Nested groups on a tiny pool must not deadlock.
	pool := NewWorkersPoolWithMax(1)
	var leaves atomic.Int32
	var recurse func(depth int)
	recurse = func(depth int) {
		if depth == 0 {
			leaves.Add(1)
			return
		}
		g := NewTaskGroup(pool)
		for range 3 {
			g.Go(func() { recurse(depth - 1) })
		}
		recurse(depth - 1)
		g.Wait()
	}
	recurse(4)
	if got := leaves.Load(); got != 256 {
		t.Errorf("leaves = %d, want 256", got)
	}
}
