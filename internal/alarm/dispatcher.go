package alarm

import (
	"context"
	"log"
	"sync"

	"github.com/Vasilis92/Spotify-Alarm/internal/notify"
)

// Job is one unit of playback work handed to the pool. DeviceID, when
// set, overrides the process-wide preferred output device for this job
// only.
type Job struct {
	Alarm    Alarm
	Source   notify.Source
	DeviceID string
}

// Runner executes a single job on a worker.
type Runner func(ctx context.Context, job Job)

// Pool runs jobs on a fixed set of workers with a bounded queue, so
// desynchronized ticks can never grow threads without bound. Dispatch
// never blocks: a full queue refuses the job.
type Pool struct {
	jobs     chan Job
	run      Runner
	workers  int
	wg       sync.WaitGroup
	quit     chan struct{}
	stopOnce sync.Once
	logger   *log.Logger
}

// NewPool creates a Pool.
func NewPool(workers, queueSize int, run Runner, logger *log.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pool{
		jobs:    make(chan Job, queueSize),
		run:     run,
		workers: workers,
		quit:    make(chan struct{}),
		logger:  logger,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.quit:
					return
				case job := <-p.jobs:
					p.execute(job)
				}
			}
		}()
	}
}

// Stop signals the workers and waits for in-flight jobs to finish.
// Queued but unstarted jobs are abandoned; there is no cancellation of a
// dispatch once started.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Dispatch enqueues a job. It reports false when the queue is full or
// the pool is stopping.
func (p *Pool) Dispatch(job Job) bool {
	select {
	case <-p.quit:
		return false
	default:
	}
	select {
	case p.jobs <- job:
		return true
	default:
		return false
	}
}

// QueueDepth returns the number of queued jobs.
func (p *Pool) QueueDepth() int {
	return len(p.jobs)
}

func (p *Pool) execute(job Job) {
	defer func() {
		if recovered := recover(); recovered != nil {
			p.logger.Printf("panic in playback worker for %q: %v", job.Alarm.Label, recovered)
		}
	}()
	p.run(context.Background(), job)
}
