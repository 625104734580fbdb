package service

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type dispatchJob struct {
	name string
	run  func(ctx context.Context) error
}

// Dispatcher runs persistence writes and payment settlement on a fixed pool of
// worker goroutines so the payout cycle never waits on I/O
type Dispatcher struct {
	jobs     chan dispatchJob
	workers  int
	wg       sync.WaitGroup
	overflow sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once

	mu     sync.Mutex
	closed bool
}

// NewDispatcher creates a dispatcher with the given number of workers and queue size
func NewDispatcher(workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		jobs:    make(chan dispatchJob, queueSize),
		workers: workers,
	}
}

// Start launches the workers. Jobs run with a context derived from ctx.
func (d *Dispatcher) Start(ctx context.Context) {
	d.ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(i)
	}
	log.WithField("workers", d.workers).Info("Dispatcher started")
}

// Submit queues a job without blocking. When the queue is full the job is handed
// to an overflow goroutine that waits for room. Jobs submitted after Close are
// dropped and logged.
func (d *Dispatcher) Submit(name string, job func(ctx context.Context) error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		log.WithField("job", name).Warn("Dispatcher closed, dropping job")
		return
	}

	queued := dispatchJob{name: name, run: job}
	select {
	case d.jobs <- queued:
		return
	default:
	}

	log.WithFields(log.Fields{
		"job":        name,
		"queue_size": cap(d.jobs),
	}).Warn("Dispatch queue full, job deferred")

	d.overflow.Add(1)
	go func() {
		defer d.overflow.Done()
		d.jobs <- queued
	}()
}

// Close stops accepting jobs and waits for queued and deferred jobs to finish.
// Start must have been called.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		d.overflow.Wait()
		close(d.jobs)
		d.wg.Wait()
		if d.cancel != nil {
			d.cancel()
		}
		log.Info("Dispatcher stopped")
	})
}

func (d *Dispatcher) work(worker int) {
	defer d.wg.Done()
	for job := range d.jobs {
		d.run(worker, job)
	}
}

func (d *Dispatcher) run(worker int, job dispatchJob) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"job":    job.name,
				"worker": worker,
				"panic":  r,
			}).Error("Dispatched job panicked")
		}
	}()

	if err := job.run(d.ctx); err != nil {
		log.WithFields(log.Fields{
			"job":      job.name,
			"worker":   worker,
			"duration": time.Since(start),
		}).WithError(err).Error("Dispatched job failed")
		return
	}

	log.WithFields(log.Fields{
		"job":      job.name,
		"worker":   worker,
		"duration": time.Since(start),
	}).Debug("Dispatched job completed")
}
