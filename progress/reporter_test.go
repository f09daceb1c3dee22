package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compressd/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.ProgressEvent
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, ev models.ProgressEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.events = append(n.events, ev)
	return nil
}

func (n *recordingNotifier) forJob(id string) []models.ProgressEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.ProgressEvent
	for _, ev := range n.events {
		if ev.JobID == id {
			out = append(out, ev)
		}
	}
	return out
}

func TestReporterCoalescesBursts(t *testing.T) {
	notifier := &recordingNotifier{}
	r := NewReporter(notifier, 50*time.Millisecond, time.Second)

	// a burst inside one flush interval collapses to the latest value
	for pct := 1; pct <= 40; pct++ {
		r.Report(models.ProgressEvent{JobID: "j1", Percent: pct, Phase: "encoding"})
	}
	r.Close()

	got := notifier.forJob("j1")
	require.Len(t, got, 1)
	assert.Equal(t, 40, got[0].Percent)
	assert.Equal(t, "encoding", got[0].Phase)
}

func TestReporterMonotonicPercent(t *testing.T) {
	notifier := &recordingNotifier{}
	r := NewReporter(notifier, 10*time.Millisecond, time.Second)

	r.Report(models.ProgressEvent{JobID: "j1", Percent: 60})
	time.Sleep(30 * time.Millisecond)
	// a late, lower reading must not move the needle backwards
	r.Report(models.ProgressEvent{JobID: "j1", Percent: 20})
	r.Close()

	got := notifier.forJob("j1")
	require.NotEmpty(t, got)
	last := 0
	for _, ev := range got {
		assert.GreaterOrEqual(t, ev.Percent, last)
		last = ev.Percent
	}
	assert.Equal(t, 60, last)
}

func TestReporterTerminalExactlyOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	r := NewReporter(notifier, 10*time.Millisecond, time.Second)

	r.Report(models.ProgressEvent{JobID: "j1", Percent: 50})
	r.Report(models.ProgressEvent{JobID: "j1", Percent: 100, Terminal: true, Status: models.StatusSucceeded})
	// stragglers after the terminal must be suppressed
	r.Report(models.ProgressEvent{JobID: "j1", Percent: 100, Terminal: true, Status: models.StatusSucceeded})
	r.Report(models.ProgressEvent{JobID: "j1", Percent: 70})
	r.Close()

	terminals := 0
	for _, ev := range notifier.forJob("j1") {
		if ev.Terminal {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)

	got := notifier.forJob("j1")
	assert.True(t, got[len(got)-1].Terminal, "terminal must be the last delivered event")
}

func TestReporterTerminalDeliversImmediately(t *testing.T) {
	notifier := &recordingNotifier{}
	// long interval so only the terminal fast path can deliver in time
	r := NewReporter(notifier, time.Hour, time.Second)
	defer r.Close()

	r.Report(models.ProgressEvent{JobID: "j1", Percent: 0, Terminal: true, Status: models.StatusFailed, Detail: "boom"})

	require.Eventually(t, func() bool {
		return len(notifier.forJob("j1")) == 1
	}, time.Second, 5*time.Millisecond)
	ev := notifier.forJob("j1")[0]
	assert.True(t, ev.Terminal)
	assert.Equal(t, models.StatusFailed, ev.Status)
	assert.Equal(t, "boom", ev.Detail)
}

func TestReporterNeverBlocksCaller(t *testing.T) {
	notifier := &recordingNotifier{}
	// huge interval keeps the buffer from draining during the burst
	r := NewReporter(notifier, time.Hour, time.Second)
	defer r.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5000; i++ {
			r.Report(models.ProgressEvent{JobID: "j1", Percent: i % 100})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Report blocked the producer")
	}
}

func TestReporterSurvivesNotifierErrors(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("channel down")}
	r := NewReporter(notifier, 10*time.Millisecond, time.Second)

	r.Report(models.ProgressEvent{JobID: "j1", Percent: 50})
	r.Report(models.ProgressEvent{JobID: "j1", Percent: 100, Terminal: true, Status: models.StatusSucceeded})
	time.Sleep(30 * time.Millisecond)

	// delivery failed, but Close must still return promptly
	closed := make(chan struct{})
	go func() {
		r.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close hung after notifier errors")
	}
}

// gatedNotifier blocks every delivery until the gate opens, letting tests
// wedge the run loop inside a delivery.
type gatedNotifier struct {
	recordingNotifier
	gate    chan struct{}
	entered chan struct{}
}

func (n *gatedNotifier) Notify(ctx context.Context, ev models.ProgressEvent) error {
	select {
	case n.entered <- struct{}{}:
	default:
	}
	<-n.gate
	return n.recordingNotifier.Notify(ctx, ev)
}

func TestReporterTerminalSurvivesFullBuffer(t *testing.T) {
	notifier := &gatedNotifier{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	r := NewReporter(notifier, time.Hour, time.Second)

	// wedge the run loop inside a delivery so nothing drains the buffer
	r.Report(models.ProgressEvent{JobID: "stall", Percent: 100, Terminal: true, Status: models.StatusSucceeded})
	<-notifier.entered

	// flood well past the buffer capacity with coalescable updates
	for i := 0; i < 400; i++ {
		r.Report(models.ProgressEvent{JobID: "j1", Percent: i % 100})
	}
	// the terminal arrives against a full buffer and must not be lost
	r.Report(models.ProgressEvent{JobID: "j1", Percent: 100, Terminal: true, Status: models.StatusSucceeded})

	close(notifier.gate)
	r.Close()

	terminals := 0
	for _, ev := range notifier.forJob("j1") {
		if ev.Terminal {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals, "terminal must survive a full buffer, exactly once")
}

func TestReporterTracksJobsIndependently(t *testing.T) {
	notifier := &recordingNotifier{}
	r := NewReporter(notifier, 10*time.Millisecond, time.Second)

	r.Report(models.ProgressEvent{JobID: "j1", Percent: 30})
	r.Report(models.ProgressEvent{JobID: "j2", Percent: 80})
	r.Report(models.ProgressEvent{JobID: "j1", Percent: 100, Terminal: true, Status: models.StatusSucceeded})
	r.Report(models.ProgressEvent{JobID: "j2", Percent: 90})
	r.Close()

	// j1's terminal must not suppress j2's updates
	j2 := notifier.forJob("j2")
	require.NotEmpty(t, j2)
	assert.Equal(t, 90, j2[len(j2)-1].Percent)
}
