package parallel

import (
	"errors"
	"runtime"
	"sync"
)

// ErrPoolClosed is returned when submitting to a pool that already ran.
var ErrPoolClosed = errors.New("parallel: task pool closed")

// TaskPool is a one-shot FIFO work queue drained by a fixed set of workers.
//
// Workers start at construction and block on a condition variable until a
// task arrives or Run marks the queue finished. Tasks must write only to
// targets they own; the pool does no locking over caller data.
type TaskPool struct {
	mu       sync.Mutex
	cond     *sync.Cond // Signals workers that tasks arrived or the pool finished
	queue    []func()
	head     int
	finished bool
	wg       sync.WaitGroup
}

// NewTaskPool starts workers goroutines. A non-positive count defaults to
// runtime.NumCPU.
func NewTaskPool(workers int) *TaskPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &TaskPool{}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

// Submit enqueues a task.
func (p *TaskPool) Submit(task func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return ErrPoolClosed
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return nil
}

// Run closes the pool for submissions and blocks until every queued task has
// executed and all workers have exited.
func (p *TaskPool) Run() {
	p.mu.Lock()
	p.finished = true
	p.cond.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *TaskPool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for p.head == len(p.queue) && !p.finished {
			p.cond.Wait()
		}
		if p.head == len(p.queue) {
			// Finished and drained.
			p.mu.Unlock()
			return
		}
		task := p.queue[p.head]
		p.queue[p.head] = nil
		p.head++
		p.mu.Unlock()

		task()
	}
}

// DynamicFor runs fn for every index in [first, last) on a fresh pool,
// one task per index.
func DynamicFor(workers, first, last int, fn func(i int)) {
	p := NewTaskPool(workers)
	for i := first; i < last; i++ {
		_ = p.Submit(func() { fn(i) })
	}
	p.Run()
}
