package rabbitmq

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeWorker blocks in Start until Stop is called.
type fakeWorker struct {
	name     string
	started  atomic.Bool
	stopped  atomic.Bool
	stopChan chan struct{}
}

func newFakeWorker(name string) *fakeWorker {
	return &fakeWorker{name: name, stopChan: make(chan struct{})}
}

func (w *fakeWorker) Start(ctx context.Context) {
	w.started.Store(true)
	select {
	case <-ctx.Done():
	case <-w.stopChan:
	}
}

func (w *fakeWorker) Stop() {
	if w.stopped.CompareAndSwap(false, true) {
		close(w.stopChan)
	}
}

func (w *fakeWorker) Name() string { return w.name }

func TestDispatcher_StartAndStop(t *testing.T) {
	workerA := newFakeWorker("a")
	workerB := newFakeWorker("b")
	dispatcher := NewDispatcher(zap.NewNop(), workerA, workerB)

	done := make(chan struct{})
	go func() {
		dispatcher.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return workerA.started.Load() && workerB.started.Load()
	}, time.Second, 10*time.Millisecond)
	assert.True(t, dispatcher.IsStarted())

	dispatcher.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not shut down")
	}
	assert.True(t, workerA.stopped.Load())
	assert.True(t, workerB.stopped.Load())
	assert.False(t, dispatcher.IsStarted())
}

func TestDispatcher_ContextCancellation(t *testing.T) {
	worker := newFakeWorker("a")
	dispatcher := NewDispatcher(zap.NewNop(), worker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		dispatcher.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return worker.started.Load() }, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not react to context cancellation")
	}
	assert.True(t, worker.stopped.Load())
}

func TestDispatcher_StopBeforeStartDoesNotDisableStop(t *testing.T) {
	worker := newFakeWorker("a")
	dispatcher := NewDispatcher(zap.NewNop(), worker)
	dispatcher.Stop()

	done := make(chan struct{})
	go func() {
		dispatcher.Start(context.Background())
		close(done)
	}()
	assert.Eventually(t, func() bool { return worker.started.Load() }, time.Second, 10*time.Millisecond)

	dispatcher.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("a Stop issued before Start must not disable the one issued after")
	}
}

func TestDispatcher_StopIsIdempotent(t *testing.T) {
	worker := newFakeWorker("a")
	dispatcher := NewDispatcher(zap.NewNop(), worker)

	go dispatcher.Start(context.Background())
	assert.Eventually(t, func() bool { return worker.started.Load() }, time.Second, 10*time.Millisecond)

	dispatcher.Stop()
	dispatcher.Stop()
}
