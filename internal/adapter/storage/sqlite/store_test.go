package sqlite

import (
	"fmt"
	"testing"
	"time"

	"github.com/bnema/mediaq/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *HistoryStore {
	t.Helper()
	store, err := NewHistoryStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func entry(id string, status domain.JobStatus, finishedAt time.Time) domain.JobHistoryEntry {
	return domain.JobHistoryEntry{
		JobID:      id,
		Name:       "render " + id,
		Status:     status,
		StartedAt:  finishedAt.Add(-2 * time.Second),
		FinishedAt: finishedAt,
		LogLevel:   domain.LogLevelFor(status),
	}
}

func TestHistoryStore_RecordAndGet(t *testing.T) {
	store := newTestStore(t)
	finished := time.Date(2026, 3, 14, 15, 9, 26, 535000000, time.UTC)

	e := entry("job-1", domain.JobStatusFailed, finished)
	e.ErrorMessage = "ffmpeg failed: exit status 1"
	e.Message = e.ErrorMessage
	e.OutputPath = "/out/a.mp4"
	e.Metadata = domain.Metadata{"preset": "fast", "crf": 23}
	require.NoError(t, store.Record(e))

	got, err := store.Get("job-1")
	require.NoError(t, err)

	assert.Equal(t, "job-1", got.JobID)
	assert.Equal(t, "render job-1", got.Name)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, domain.LogLevelError, got.LogLevel)
	assert.Equal(t, "ffmpeg failed: exit status 1", got.ErrorMessage)
	assert.Equal(t, "ffmpeg failed: exit status 1", got.Message)
	assert.Equal(t, "/out/a.mp4", got.OutputPath)
	assert.True(t, finished.Equal(got.FinishedAt))
	assert.True(t, e.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, "fast", got.Metadata["preset"])
	// JSON numbers come back as float64.
	assert.Equal(t, float64(23), got.Metadata["crf"])
}

func TestHistoryStore_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Get("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, got)
}

func TestHistoryStore_RecordReplaces(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	require.NoError(t, store.Record(entry("job-1", domain.JobStatusCanceled, now)))
	require.NoError(t, store.Record(entry("job-1", domain.JobStatusCompleted, now.Add(time.Second))))

	all, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, domain.JobStatusCompleted, all[0].Status)
	assert.Nil(t, all[0].Metadata)
}

func TestHistoryStore_List(t *testing.T) {
	store := newTestStore(t)
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(entry(fmt.Sprintf("job-%d", i), domain.JobStatusCompleted, base.Add(time.Duration(i)*time.Second))))
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "all", limit: 0, want: []string{"job-0", "job-1", "job-2", "job-3", "job-4"}},
		{name: "negative means all", limit: -3, want: []string{"job-0", "job-1", "job-2", "job-3", "job-4"}},
		{name: "most recent two, oldest first", limit: 2, want: []string{"job-3", "job-4"}},
		{name: "limit above count", limit: 50, want: []string{"job-0", "job-1", "job-2", "job-3", "job-4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := store.List(tt.limit)
			require.NoError(t, err)

			ids := make([]string, len(entries))
			for i, e := range entries {
				ids[i] = e.JobID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestHistoryStore_ListEmpty(t *testing.T) {
	store := newTestStore(t)

	entries, err := store.List(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryStore_Reopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewHistoryStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Record(entry("job-1", domain.JobStatusCompleted, time.Now())))
	require.NoError(t, store.Close())

	reopened, err := NewHistoryStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
}

func TestMetadataCodec(t *testing.T) {
	raw, err := encodeMetadata(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", raw)

	m, err := decodeMetadata("{}")
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = decodeMetadata("not json")
	assert.Error(t, err)
}
