package step

// Runner executes one unit of work at a time on a dedicated goroutine so a
// full physics pass can overlap the caller's frame. The caller must join the
// outstanding task before submitting another or mutating state the task may
// read; there is no cancellation, a submitted unit always runs to completion.
type Runner struct {
	jobs chan job
}

type job struct {
	fn   func()
	done chan struct{}
}

// Task is the join handle for one submitted unit.
type Task struct {
	done chan struct{}
}

// Join blocks until the unit has run to completion. Joining a nil task is a
// no-op.
func (t *Task) Join() {
	if t == nil {
		return
	}
	<-t.done
}

// NewRunner starts the dedicated worker goroutine.
func NewRunner() *Runner {
	r := &Runner{jobs: make(chan job)}
	go r.loop()
	return r
}

func (r *Runner) loop() {
	for j := range r.jobs {
		j.fn()
		close(j.done)
	}
}

// Submit hands fn to the worker and returns its join handle.
func (r *Runner) Submit(fn func()) *Task {
	j := job{fn: fn, done: make(chan struct{})}
	r.jobs <- j
	return &Task{done: j.done}
}

// Close stops the worker once the in-flight unit, if any, finishes.
func (r *Runner) Close() {
	close(r.jobs)
}
