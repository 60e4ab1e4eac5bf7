package step

import "sync"

// Pool fans batches of independent tasks out across a fixed set of worker
// goroutines. A nil *Pool is valid and runs every batch inline, so callers
// get identical results with and without concurrency.
type Pool struct {
	tasks   chan func()
	workers int
	wg      sync.WaitGroup
}

// NewPool starts a pool with the given worker count. Fewer than two workers
// returns nil: fan-out degrades to sequential execution.
func NewPool(workers int) *Pool {
	if workers < 2 {
		return nil
	}
	p := &Pool{
		tasks:   make(chan func()),
		workers: workers,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Workers reports the pool size; zero for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 0
	}
	return p.workers
}

// Parallelize runs every task in the batch and blocks until all have
// completed. Tasks must be independent; the barrier is the only ordering
// guarantee. Must not be called from inside a pool task.
func (p *Pool) Parallelize(tasks []func()) {
	if p == nil {
		for _, task := range tasks {
			task()
		}
		return
	}
	var batch sync.WaitGroup
	batch.Add(len(tasks))
	for _, task := range tasks {
		task := task
		p.tasks <- func() {
			defer batch.Done()
			task()
		}
	}
	batch.Wait()
}

// Close stops the workers after the current batch drains.
func (p *Pool) Close() {
	if p == nil {
		return
	}
	close(p.tasks)
	p.wg.Wait()
}
