// Package scheduler admits compression jobs, bounds concurrent work and
// guarantees every admitted job reaches exactly one terminal state.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"compressd/logger"
	"compressd/models"
)

// Engine runs one compression. The concrete implementation lives in the
// compressor package; tests substitute their own.
type Engine interface {
	Compress(ctx context.Context, inputPath, outputDir string, opts models.CompressionOptions, report func(percent int)) (string, error)
}

// Resolver turns an input reference into a local file inside destDir.
type Resolver interface {
	Resolve(ctx context.Context, ref, destDir string, report func(percent int)) (string, error)
}

// Deliverer places a finished output at its destination.
type Deliverer interface {
	Deliver(ctx context.Context, localPath string, spec *models.DeliverySpec) (string, error)
}

// Archiver persists terminal job records.
type Archiver interface {
	Put(job models.Job) error
}

// EventSink receives progress events; satisfied by progress.Reporter.
type EventSink interface {
	Report(ev models.ProgressEvent)
}

// Options tunes the scheduler; zero values get sane defaults from New.
type Options struct {
	Workers      int           // max concurrently running jobs
	MaxQueue     int           // pending+running admission cap
	MaxRetries   int           // extra attempts for execution failures
	RetryBackoff time.Duration // base backoff, doubled per attempt
	CancelGrace  time.Duration // force-cancel deadline
	WorkDir      string        // scratch space for per-job directories
}

// Scheduler owns the job table. Jobs are mutated only while holding mu;
// callers get copies.
type Scheduler struct {
	opts     Options
	engine   Engine
	resolver Resolver
	deliver  Deliverer
	archive  Archiver
	events   EventSink

	// OnTerminal, when set, runs once per job after it reaches a terminal
	// state (used for per-job completion callbacks). Best effort.
	OnTerminal func(job models.Job)

	mu      sync.Mutex
	jobs    map[string]*models.Job
	queue   []string // pending job ids in arrival order
	running int
	cancels map[string]context.CancelFunc

	wake chan struct{}
	quit chan struct{}
	wg   sync.WaitGroup
}

// New wires a scheduler; call Start to begin dispatching.
func New(opts Options, engine Engine, resolver Resolver, deliver Deliverer, archive Archiver, events EventSink) *Scheduler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxQueue < opts.Workers {
		opts.MaxQueue = opts.Workers
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 5 * time.Second
	}
	if opts.CancelGrace <= 0 {
		opts.CancelGrace = 10 * time.Second
	}
	return &Scheduler{
		opts:     opts,
		engine:   engine,
		resolver: resolver,
		deliver:  deliver,
		archive:  archive,
		events:   events,
		jobs:     make(map[string]*models.Job),
		cancels:  make(map[string]context.CancelFunc),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
}

// Start launches the dispatch loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.dispatch()
	logger.Infof("scheduler started: %d workers, queue cap %d", s.opts.Workers, s.opts.MaxQueue)
}

// Stop cancels all running jobs and waits for the loops to exit. quit is
// closed under the lock so Cancel cannot arm a watchdog after the wait
// begins.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	close(s.quit)
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Submit admits a job in arrival order. Non-blocking; returns
// ErrCapacityExceeded without touching the queue when pending+running is at
// the cap.
func (s *Scheduler) Submit(job *models.Job) error {
	s.mu.Lock()
	if len(s.queue)+s.running >= s.opts.MaxQueue {
		pending, running := len(s.queue), s.running
		s.mu.Unlock()
		return fmt.Errorf("%w: %d pending and %d running (max %d)",
			models.ErrCapacityExceeded, pending, running, s.opts.MaxQueue)
	}

	job.Status = models.StatusPending
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	s.jobs[job.ID] = job
	s.queue = append(s.queue, job.ID)
	s.mu.Unlock()

	logger.Infof("job %s admitted (%s)", job.ID, job.InputRef)
	s.signal()
	return nil
}

// Cancel stops a job. Pending jobs terminalize immediately; running jobs get
// a cooperative cancel signal and are force-marked Cancelled if the engine
// does not acknowledge within the grace period.
func (s *Scheduler) Cancel(id string) error {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", models.ErrJobNotFound, id)
	}
	if job.Status.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s is %s", models.ErrJobTerminal, id, job.Status)
	}

	if job.Status == models.StatusPending {
		s.dropFromQueue(id)
		job.Status = models.StatusCancelled
		job.CompletedAt = time.Now()
		snapshot := *job
		s.mu.Unlock()

		logger.Infof("job %s cancelled while pending", id)
		s.afterTerminal(snapshot)
		return nil
	}

	// running: signal and arm the grace watchdog. The Add happens under the
	// lock with quit checked, so it cannot race Stop's Wait.
	cancel := s.cancels[id]
	armed := false
	select {
	case <-s.quit:
	default:
		s.wg.Add(1)
		armed = true
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	logger.Infof("job %s cancel signalled, grace %s", id, s.opts.CancelGrace)

	if armed {
		go s.enforceGrace(id)
	}
	return nil
}

// Job returns a copy of the job's current record.
func (s *Scheduler) Job(id string) (models.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return *job, true
}

// Jobs returns copies of every job the scheduler still tracks.
func (s *Scheduler) Jobs() []models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// Counts returns the pending and running totals.
func (s *Scheduler) Counts() (pending, running int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue), s.running
}

// signal nudges the dispatch loop without ever blocking.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) dispatch() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case <-s.wake:
		}
		s.fill()
	}
}

// fill starts queued jobs until the worker slots are full, FIFO.
func (s *Scheduler) fill() {
	for {
		s.mu.Lock()
		if s.running >= s.opts.Workers || len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}

		id := s.queue[0]
		s.queue = s.queue[1:]
		job := s.jobs[id]
		if job == nil || job.Status != models.StatusPending {
			s.mu.Unlock()
			continue
		}

		job.Status = models.StatusRunning
		job.StartedAt = time.Now()
		s.running++

		ctx, cancel := context.WithCancel(context.Background())
		s.cancels[id] = cancel
		snapshot := *job
		s.mu.Unlock()

		logger.Infof("job %s dispatched", id)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer cancel()
			s.run(ctx, snapshot)
		}()
	}
}

// dropFromQueue removes an id from the pending queue. Caller holds mu.
func (s *Scheduler) dropFromQueue(id string) {
	for i, queued := range s.queue {
		if queued == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

// enforceGrace force-terminalizes a running job that outlived its
// cancellation grace period.
func (s *Scheduler) enforceGrace(id string) {
	defer s.wg.Done()

	timer := time.NewTimer(s.opts.CancelGrace)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.quit:
		return
	}

	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		s.mu.Unlock()
		return
	}

	job.Status = models.StatusCancelled
	job.Error = models.ErrCancelTimeout.Error()
	job.CompletedAt = time.Now()
	s.running--
	delete(s.cancels, id)
	snapshot := *job
	s.mu.Unlock()

	logger.Warnf("job %s force-cancelled after %s grace period", id, s.opts.CancelGrace)
	s.afterTerminal(snapshot)
	s.signal()
}
