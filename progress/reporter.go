// Package progress delivers job progress to the configured notification
// channel without ever blocking the compression path.
package progress

import (
	"context"
	"sync"
	"time"

	"compressd/logger"
	"compressd/models"
)

// Notifier is the outbound notification channel (the bot transport side).
type Notifier interface {
	Notify(ctx context.Context, ev models.ProgressEvent) error
}

// how long a job's terminal marker is kept around to suppress stragglers
const terminalMemory = 10 * time.Minute

// Reporter coalesces rapid progress updates per job and pushes them to a
// Notifier on a flush interval. Terminal events skip coalescing and are
// delivered exactly once per job; delivery failures are logged and dropped.
type Reporter struct {
	notifier Notifier
	interval time.Duration
	timeout  time.Duration

	events chan models.ProgressEvent
	quit   chan struct{}
	done   chan struct{}

	// terminals that arrived while the buffer was full; the run loop drains
	// these so a terminal is never lost to backpressure
	mu       sync.Mutex
	overflow []models.ProgressEvent

	// owned by the run loop, no locking needed
	latest     map[string]models.ProgressEvent
	lastPct    map[string]int
	terminalAt map[string]time.Time
}

// NewReporter starts a reporter pushing to the given notifier.
func NewReporter(notifier Notifier, interval, timeout time.Duration) *Reporter {
	r := &Reporter{
		notifier:   notifier,
		interval:   interval,
		timeout:    timeout,
		events:     make(chan models.ProgressEvent, 256),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		latest:     make(map[string]models.ProgressEvent),
		lastPct:    make(map[string]int),
		terminalAt: make(map[string]time.Time),
	}
	go r.run()
	return r
}

// Report hands an event to the reporter. Never blocks: when the buffer is
// full a coalescable update is dropped and logged, while a terminal event is
// parked for the run loop to pick up. The caller keeps compressing.
func (r *Reporter) Report(ev models.ProgressEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case r.events <- ev:
	default:
		if ev.Terminal {
			r.mu.Lock()
			r.overflow = append(r.overflow, ev)
			r.mu.Unlock()
			return
		}
		logger.Warnf("progress buffer full, dropping event for job %s (%d%%)", ev.JobID, ev.Percent)
	}
}

// Close flushes whatever is pending and stops the loop.
func (r *Reporter) Close() {
	close(r.quit)
	<-r.done
}

func (r *Reporter) run() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-r.events:
			r.ingest(ev)
		case <-ticker.C:
			r.drainOverflow()
			r.flush()
			r.pruneTerminals()
		case <-r.quit:
			// drain and flush before exiting
			for {
				select {
				case ev := <-r.events:
					r.ingest(ev)
				default:
					r.drainOverflow()
					r.flush()
					return
				}
			}
		}
	}
}

// ingest applies per-job ordering rules: nothing after a terminal, percent
// never decreases, terminals deliver immediately.
func (r *Reporter) ingest(ev models.ProgressEvent) {
	if _, terminal := r.terminalAt[ev.JobID]; terminal {
		return
	}

	if last, ok := r.lastPct[ev.JobID]; ok && ev.Percent < last {
		ev.Percent = last
	}
	r.lastPct[ev.JobID] = ev.Percent

	if ev.Terminal {
		delete(r.latest, ev.JobID)
		delete(r.lastPct, ev.JobID)
		r.terminalAt[ev.JobID] = time.Now()
		r.deliver(ev)
		return
	}
	r.latest[ev.JobID] = ev
}

// drainOverflow ingests terminals that missed the buffer.
func (r *Reporter) drainOverflow() {
	r.mu.Lock()
	parked := r.overflow
	r.overflow = nil
	r.mu.Unlock()

	for _, ev := range parked {
		r.ingest(ev)
	}
}

func (r *Reporter) flush() {
	for id, ev := range r.latest {
		r.deliver(ev)
		delete(r.latest, id)
	}
}

func (r *Reporter) deliver(ev models.ProgressEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.notifier.Notify(ctx, ev); err != nil {
		// best effort only; a dead channel must not touch the job
		logger.Warnf("progress delivery failed for job %s: %v", ev.JobID, err)
	}
}

func (r *Reporter) pruneTerminals() {
	cutoff := time.Now().Add(-terminalMemory)
	for id, at := range r.terminalAt {
		if at.Before(cutoff) {
			delete(r.terminalAt, id)
		}
	}
}
