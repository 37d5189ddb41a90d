package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/felicity-events/felicity-api/internal/metrics"
)

// LocalDispatcher runs jobs on a fixed pool of goroutines. Jobs get a fresh
// context, so they outlive the request that queued them.
type LocalDispatcher struct {
	exec    Executor
	timeout time.Duration
	jobs    chan Job
	wg      sync.WaitGroup
	once    sync.Once
}

func NewLocalDispatcher(exec Executor, workers, queueSize int, timeout time.Duration) *LocalDispatcher {
	if workers < 1 {
		workers = 1
	}

	d := &LocalDispatcher{
		exec:    exec,
		timeout: timeout,
		jobs:    make(chan Job, queueSize),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}

	return d
}

func (d *LocalDispatcher) work() {
	defer d.wg.Done()

	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		run(ctx, d.exec, job)
		cancel()
	}
}

// Dispatch queues the job. When the queue is full the job is dropped and counted
// as a failure.
func (d *LocalDispatcher) Dispatch(_ context.Context, job Job) {
	select {
	case d.jobs <- job:
	default:
		metrics.SideEffectFailures.WithLabelValues(string(job.Kind)).Inc()
		zap.L().Warn("side effect queue full, dropping job", zap.String("kind", string(job.Kind)))
	}
}

// Stop waits for queued jobs to finish. Dispatch must not be called afterwards.
func (d *LocalDispatcher) Stop() {
	d.once.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}
