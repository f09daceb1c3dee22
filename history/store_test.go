package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compressd/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func terminalJob(id string, status models.JobStatus) models.Job {
	return models.Job{
		ID:          id,
		InputRef:    "/media/" + id + ".mp4",
		Status:      status,
		CreatedAt:   time.Now().Add(-time.Minute),
		CompletedAt: time.Now(),
		OutputRef:   "/serve/" + id + "_balanced.mp4",
	}
}

func TestPutAndGet(t *testing.T) {
	store := openTestStore(t)

	want := terminalJob("job-1", models.StatusSucceeded)
	require.NoError(t, store.Put(want))

	got, err := store.Get("job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.OutputRef, got.OutputRef)
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Get("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPutOverwrites(t *testing.T) {
	store := openTestStore(t)

	job := terminalJob("job-1", models.StatusFailed)
	job.Error = "execution failure: ffmpeg exited 1"
	require.NoError(t, store.Put(job))

	job.Status = models.StatusSucceeded
	job.Error = ""
	require.NoError(t, store.Put(job))

	got, err := store.Get("job-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.StatusSucceeded, got.Status)
	assert.Empty(t, got.Error)
}

func TestDelete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(terminalJob("job-1", models.StatusCancelled)))
	require.NoError(t, store.Delete("job-1"))

	got, err := store.Get("job-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting an absent id is not an error
	assert.NoError(t, store.Delete("job-1"))
}

func TestList(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(terminalJob("a", models.StatusSucceeded)))
	require.NoError(t, store.Put(terminalJob("b", models.StatusFailed)))
	require.NoError(t, store.Put(terminalJob("c", models.StatusCancelled)))

	jobs, err := store.List()
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	ids := map[string]bool{}
	for _, job := range jobs {
		ids[job.ID] = true
	}
	assert.True(t, ids["a"] && ids["b"] && ids["c"])
}

func TestCleanupOlderThan(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(terminalJob("fresh", models.StatusSucceeded)))

	// everything was stored just now, nothing to clean at a day's age
	removed, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	// with a negative age the cutoff is in the future, sweeping it all
	removed, err = store.CleanupOlderThan(-time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := store.Get("fresh")
	require.NoError(t, err)
	assert.Nil(t, got)
}
