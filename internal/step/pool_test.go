package step

import (
	"sync/atomic"
	"testing"
)

func TestPoolRunsEveryTask(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var ran atomic.Int64
	tasks := make([]func(), 100)
	for i := range tasks {
		tasks[i] = func() { ran.Add(1) }
	}
	pool.Parallelize(tasks)
	if got := ran.Load(); got != 100 {
		t.Fatalf("expected 100 tasks to run, got %d", got)
	}
}

func TestPoolParallelizeIsABarrier(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	results := make([]int, 50)
	tasks := make([]func(), len(results))
	for i := range tasks {
		i := i
		tasks[i] = func() { results[i] = i + 1 }
	}
	pool.Parallelize(tasks)
	// After Parallelize returns every write must be visible.
	for i, v := range results {
		if v != i+1 {
			t.Fatalf("task %d result missing after barrier", i)
		}
	}
}

func TestNilPoolRunsSequentially(t *testing.T) {
	var pool *Pool
	if pool.Workers() != 0 {
		t.Fatalf("nil pool should report zero workers")
	}

	var order []int
	tasks := []func(){
		func() { order = append(order, 0) },
		func() { order = append(order, 1) },
		func() { order = append(order, 2) },
	}
	pool.Parallelize(tasks)
	for i, v := range order {
		if v != i {
			t.Fatalf("nil pool ran tasks out of order: %v", order)
		}
	}
}

func TestNewPoolRefusesSingleWorker(t *testing.T) {
	if NewPool(1) != nil {
		t.Fatalf("expected nil pool for a single worker")
	}
	if NewPool(0) != nil {
		t.Fatalf("expected nil pool for zero workers")
	}
}
