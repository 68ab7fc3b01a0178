package workerpool

import (
	"context"
	"sync"
	"time"

	"followsync/pkg/logger"
)

// Processor handles a single job
type Processor[J, R any] func(ctx context.Context, job J) R

// Canceler builds the result for a job that was never started
type Canceler[J, R any] func(job J) R

type indexed[T any] struct {
	index int
	value T
}

// WorkerPool runs jobs on a fixed number of workers. With one worker jobs
// run strictly in submission order.
type WorkerPool[J, R any] struct {
	numWorkers  int
	jobQueue    chan indexed[J]
	resultQueue chan indexed[R]
	wg          sync.WaitGroup
	process     Processor[J, R]
	canceled    Canceler[J, R]
	logger      logger.Logger
}

// New creates a worker pool. canceled may be nil, in which case jobs left
// after cancellation yield the zero R.
func New[J, R any](numWorkers int, process Processor[J, R], canceled Canceler[J, R], log logger.Logger) *WorkerPool[J, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if canceled == nil {
		canceled = func(J) R {
			var zero R
			return zero
		}
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &WorkerPool[J, R]{
		numWorkers: numWorkers,
		process:    process,
		canceled:   canceled,
		logger:     log,
	}
}

// Workers returns the number of workers
func (wp *WorkerPool[J, R]) Workers() int {
	return wp.numWorkers
}

// Run processes every job and returns the results in job order. Once ctx is
// done no further jobs are started; each of those gets the canceled result.
func (wp *WorkerPool[J, R]) Run(ctx context.Context, jobs []J) []R {
	results := make([]R, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	wp.jobQueue = make(chan indexed[J], wp.numWorkers*2)
	wp.resultQueue = make(chan indexed[R], wp.numWorkers)

	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
		"jobs":        len(jobs),
	})
	start := time.Now()

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}

	go func() {
		for i, job := range jobs {
			wp.jobQueue <- indexed[J]{index: i, value: job}
		}
		close(wp.jobQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
	}()

	for res := range wp.resultQueue {
		results[res.index] = res.value
	}

	wp.logger.DebugWithFields("Worker pool stopped", map[string]interface{}{
		"duration": time.Since(start),
	})
	return results
}

func (wp *WorkerPool[J, R]) worker(ctx context.Context, id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		var result R
		if ctx.Err() != nil {
			wp.logger.DebugWithFields("Worker skipping job - context cancelled", map[string]interface{}{
				"worker_id": id,
				"job":       job.index,
			})
			result = wp.canceled(job.value)
		} else {
			result = wp.process(ctx, job.value)
		}
		wp.resultQueue <- indexed[R]{index: job.index, value: result}
	}
}
