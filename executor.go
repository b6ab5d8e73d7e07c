package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
)

// Executor governs where dispatched invocation batches run. The policy
// is selectable without touching registry or condition logic:
//   - Inline() runs the batch on the caller's goroutine before
//     Multicast returns.
//   - Pool(n) hands the batch to a worker pool; Multicast returns once
//     submission - not completion - succeeds.
type Executor interface {
	// Execute runs or schedules task. A nil error means the task was
	// accepted; for delegated executors it says nothing about completion.
	Execute(ctx context.Context, task func(context.Context)) error

	// Close shuts the executor down. Queued, not-yet-started tasks are
	// dropped (best-effort cancellation); in-flight tasks are not
	// interrupted and Close waits for them to finish.
	Close(ctx context.Context) error
}

// inlineExecutor runs tasks synchronously on the calling goroutine.
type inlineExecutor struct{}

// Inline returns the synchronous execution policy. It is the default:
// deterministic and test-friendly, every handler completes before
// Multicast returns.
func Inline() Executor {
	return inlineExecutor{}
}

func (inlineExecutor) Execute(ctx context.Context, task func(context.Context)) error {
	task(ctx)
	return nil
}

func (inlineExecutor) Close(context.Context) error {
	return nil
}

// Deferred reports whether the executor completes tasks after Execute
// returns. The multicaster uses this to decide between a complete and a
// deferred DispatchResult.
func Deferred(e Executor) bool {
	_, inline := e.(inlineExecutor)
	return !inline
}

const (
	poolRunning = 1
	poolStopped = 0
)

// DefaultPoolBuffer is the default task queue size for Pool executors.
var DefaultPoolBuffer = 100

type poolTask struct {
	ctx context.Context
	run func(context.Context)
}

// poolExecutor runs tasks on a fixed set of worker goroutines.
type poolExecutor struct {
	status  int32
	tasks   chan poolTask
	quit    chan struct{}
	workers sync.WaitGroup
}

// Pool returns a delegated execution policy backed by workers worker
// goroutines and a buffered task queue. Tasks submitted to a closed pool
// fail with ErrExecutorClosed. On Close, queued tasks that have not
// started are abandoned.
func Pool(workers int) Executor {
	if workers <= 0 {
		workers = 1
	}
	p := &poolExecutor{
		status: poolRunning,
		tasks:  make(chan poolTask, DefaultPoolBuffer),
		quit:   make(chan struct{}),
	}
	p.workers.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *poolExecutor) worker() {
	defer p.workers.Done()
	for {
		// Shutdown wins over queued work: once quit is closed, no new
		// task is picked up even if the queue is non-empty.
		select {
		case <-p.quit:
			return
		default:
		}
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			task.run(task.ctx)
		}
	}
}

func (p *poolExecutor) Execute(ctx context.Context, task func(context.Context)) error {
	if atomic.LoadInt32(&p.status) != poolRunning {
		return ErrExecutorClosed
	}
	// The task outlives the caller's publish call: detach it from the
	// caller's cancellation while keeping context values.
	t := poolTask{ctx: context.WithoutCancel(ctx), run: task}
	select {
	case p.tasks <- t:
		return nil
	case <-p.quit:
		return ErrExecutorClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *poolExecutor) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&p.status, poolRunning, poolStopped) {
		return nil
	}
	close(p.quit)

	done := make(chan struct{})
	go func() {
		p.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Compile-time interface checks
var _ Executor = inlineExecutor{}
var _ Executor = (*poolExecutor)(nil)
