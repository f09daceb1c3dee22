package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"compressd/fetch"
	"compressd/logger"
	"compressd/models"
)

// progress windows carve the job's 0-100 range into phases so the overall
// percentage never moves backwards when the encode starts after a download.
const downloadShare = 25

// run executes one dispatched job to its terminal state.
func (s *Scheduler) run(ctx context.Context, job models.Job) {
	workDir := filepath.Join(s.opts.WorkDir, "compressd-"+job.ID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		s.finalize(job.ID, "", fmt.Errorf("%w: create work dir: %v", models.ErrExecutionFailure, err))
		return
	}
	defer os.RemoveAll(workDir)

	encodeLo := 0
	if fetch.IsRemote(job.InputRef) {
		encodeLo = downloadShare
	}

	inputPath, err := s.resolver.Resolve(ctx, job.InputRef, workDir,
		s.sink(job.ID, "downloading", 0, downloadShare))
	if err != nil {
		s.finalize(job.ID, "", err)
		return
	}

	outputPath, err := s.compressWithRetry(ctx, job, inputPath, workDir,
		s.sink(job.ID, "encoding", encodeLo, 100))
	if err != nil {
		s.finalize(job.ID, "", err)
		return
	}

	outputRef, err := s.deliver.Deliver(ctx, outputPath, job.Delivery)
	if err != nil {
		if ctx.Err() != nil {
			s.finalize(job.ID, "", ctx.Err())
			return
		}
		s.finalize(job.ID, "", fmt.Errorf("%w: deliver output: %v", models.ErrExecutionFailure, err))
		return
	}

	s.finalize(job.ID, outputRef, nil)
}

// compressWithRetry runs the engine, retrying execution failures with
// exponential backoff up to the configured attempt budget. Typed engine
// failures (unsupported format, size constraint) and cancellations are
// never retried.
func (s *Scheduler) compressWithRetry(ctx context.Context, job models.Job, inputPath, workDir string, report func(int)) (string, error) {
	attempt := 0
	for {
		outputPath, err := s.engine.Compress(ctx, inputPath, workDir, job.Options, report)
		if err == nil {
			return outputPath, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !errors.Is(err, models.ErrExecutionFailure) || attempt >= s.opts.MaxRetries {
			return "", err
		}

		attempt++
		s.noteAttempt(job.ID, attempt)
		backoff := s.opts.RetryBackoff << (attempt - 1)
		logger.Warnf("job %s attempt %d failed, retrying in %s: %v", job.ID, attempt, backoff, err)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// noteAttempt records a retry on the live job record.
func (s *Scheduler) noteAttempt(id string, attempt int) {
	s.mu.Lock()
	if job, ok := s.jobs[id]; ok && !job.Status.Terminal() {
		job.Attempts = attempt
	}
	s.mu.Unlock()
}

// sink maps a phase's local 0-100 progress into the job-global [lo,hi]
// window and forwards it to the reporter.
func (s *Scheduler) sink(jobID, phase string, lo, hi int) func(percent int) {
	return func(percent int) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		s.events.Report(models.ProgressEvent{
			JobID:     jobID,
			Percent:   lo + percent*(hi-lo)/100,
			Phase:     phase,
			Timestamp: time.Now(),
		})
	}
}

// finalize records the job's single terminal transition. A no-op when the
// grace watchdog already terminalized the job.
func (s *Scheduler) finalize(id, outputRef string, jobErr error) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		s.mu.Unlock()
		return
	}

	switch {
	case jobErr == nil:
		job.Status = models.StatusSucceeded
		job.OutputRef = outputRef
	case errors.Is(jobErr, context.Canceled):
		job.Status = models.StatusCancelled
	default:
		job.Status = models.StatusFailed
		job.Error = jobErr.Error()
	}
	job.CompletedAt = time.Now()
	s.running--
	delete(s.cancels, id)
	snapshot := *job
	s.mu.Unlock()

	switch snapshot.Status {
	case models.StatusSucceeded:
		logger.Infof("job %s succeeded: %s", id, snapshot.OutputRef)
	case models.StatusCancelled:
		logger.Infof("job %s cancelled", id)
	default:
		logger.Errorf("job %s failed: %s", id, snapshot.Error)
	}

	s.afterTerminal(snapshot)
	s.signal()
}

// afterTerminal archives the record and emits the terminal progress event.
// Both are best effort; the job's terminal state is already committed.
func (s *Scheduler) afterTerminal(job models.Job) {
	if s.archive != nil {
		if err := s.archive.Put(job); err != nil {
			logger.Errorf("failed to archive job %s: %v", job.ID, err)
		}
	}

	percent := 0
	if job.Status == models.StatusSucceeded {
		percent = 100
	}
	s.events.Report(models.ProgressEvent{
		JobID:     job.ID,
		Percent:   percent,
		Phase:     "finished",
		Terminal:  true,
		Status:    job.Status,
		OutputRef: job.OutputRef,
		Detail:    job.Error,
		Timestamp: time.Now(),
	})

	if s.OnTerminal != nil {
		s.OnTerminal(job)
	}
}
