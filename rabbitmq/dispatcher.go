package rabbitmq

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Worker is a long-running task with a graceful shutdown, typically a
// Consumer bound to one queue.
type Worker interface {
	Start(ctx context.Context)
	Stop()
	Name() string
}

// Dispatcher runs a set of workers in parallel and shuts them down together.
// A service creates one Consumer per queue it reads and hands them all to a
// single Dispatcher.
type Dispatcher struct {
	logger *zap.Logger
	wg     sync.WaitGroup

	mu       sync.RWMutex
	workers  []Worker
	stopOnce sync.Once
	stopChan chan struct{}
	started  bool
}

// NewDispatcher creates a dispatcher for the given workers.
func NewDispatcher(logger *zap.Logger, workers ...Worker) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		logger:   logger,
		workers:  workers,
		stopChan: make(chan struct{}),
	}
}

// Start runs all workers and blocks until the context is cancelled or Stop
// is called, then waits for every worker to finish shutting down.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		d.logger.Warn("Dispatcher already started")
		return
	}
	d.started = true
	d.mu.Unlock()

	d.logger.Info("Starting dispatcher", zap.Int("worker_count", len(d.workers)))

	for _, w := range d.workers {
		d.wg.Add(1)
		go func(worker Worker) {
			defer d.wg.Done()
			worker.Start(ctx)
			d.logger.Info("Worker stopped", zap.String("worker", worker.Name()))
		}(w)
	}

	select {
	case <-ctx.Done():
		d.logger.Info("Context cancelled, stopping dispatcher")
		d.Stop()
	case <-d.stopChan:
	}

	d.wg.Wait()
	d.logger.Info("All workers stopped")

	d.mu.Lock()
	d.started = false
	d.mu.Unlock()
}

// Stop shuts down all workers. Safe to call multiple times.
func (d *Dispatcher) Stop() {
	d.mu.RLock()
	started := d.started
	d.mu.RUnlock()
	// Same guard as Consumer.Stop: a Stop before Start must not spend
	// stopOnce.
	if !started {
		return
	}

	d.stopOnce.Do(func() {
		close(d.stopChan)
		for _, worker := range d.workers {
			worker.Stop()
		}
	})
}

// IsStarted reports whether the dispatcher is currently running.
func (d *Dispatcher) IsStarted() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.started
}
