package dispatch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestInlineExecutor(t *testing.T) {
	e := Inline()
	if Deferred(e) {
		t.Error("inline executor reported as deferred")
	}
	ran := false
	if err := e.Execute(context.Background(), func(ctx context.Context) {
		ran = true
	}); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !ran {
		t.Error("inline task did not run before Execute returned")
	}
	if err := e.Close(context.Background()); err != nil {
		t.Errorf("close failed: %v", err)
	}
}

func TestPoolExecutor(t *testing.T) {
	e := Pool(2)
	if !Deferred(e) {
		t.Error("pool executor not reported as deferred")
	}

	var ran int32
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		err := e.Execute(context.Background(), func(ctx context.Context) {
			if atomic.AddInt32(&ran, 1) == 5 {
				close(done)
			}
		})
		if err != nil {
			t.Fatalf("execute failed: %v", err)
		}
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool tasks never completed")
	}
	if err := e.Close(context.Background()); err != nil {
		t.Errorf("close failed: %v", err)
	}
}

func TestPoolExecutorClosed(t *testing.T) {
	e := Pool(1)
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	err := e.Execute(context.Background(), func(ctx context.Context) {})
	if !errors.Is(err, ErrExecutorClosed) {
		t.Errorf("execute after close got:%v, expected:ErrExecutorClosed", err)
	}
	// Close is idempotent.
	if err := e.Close(context.Background()); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}

func TestPoolExecutorDetachesCancellation(t *testing.T) {
	e := Pool(1)
	defer e.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	err := e.Execute(ctx, func(taskCtx context.Context) {
		// Give the caller time to cancel before checking.
		time.Sleep(20 * time.Millisecond)
		done <- taskCtx.Err()
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	cancel()
	select {
	case taskErr := <-done:
		if taskErr != nil {
			t.Errorf("task context cancelled with caller: %v", taskErr)
		}
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestPoolExecutorCloseDropsQueued(t *testing.T) {
	e := Pool(1)
	started := make(chan struct{})
	block := make(chan struct{})
	err := e.Execute(context.Background(), func(ctx context.Context) {
		close(started)
		<-block
	})
	if err != nil {
		t.Fatal(err)
	}
	<-started

	// The single worker is busy: this task sits in the queue.
	var queuedRan int32
	err = e.Execute(context.Background(), func(ctx context.Context) {
		atomic.StoreInt32(&queuedRan, 1)
	})
	if err != nil {
		t.Fatal(err)
	}

	closed := make(chan error, 1)
	go func() {
		closed <- e.Close(context.Background())
	}()
	// Let Close observe the in-flight task before releasing it.
	time.Sleep(10 * time.Millisecond)
	close(block)
	if err := <-closed; err != nil {
		t.Fatalf("close failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&queuedRan) != 0 {
		t.Error("queued task ran after close")
	}
}

func TestPoolExecutorCloseWaitsForInflight(t *testing.T) {
	e := Pool(1)
	started := make(chan struct{})
	finished := make(chan struct{})
	err := e.Execute(context.Background(), func(ctx context.Context) {
		close(started)
		time.Sleep(30 * time.Millisecond)
		close(finished)
	})
	if err != nil {
		t.Fatal(err)
	}
	<-started
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	select {
	case <-finished:
	default:
		t.Error("close returned before in-flight task finished")
	}
}
