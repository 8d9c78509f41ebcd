package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"flowdash/internal/jira"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	mtime   time.Time
	statErr error
	loadErr error
	tickets []jira.Ticket
	loads   atomic.Int32
	gate    chan struct{}
}

func (f *fakeSource) ModTime() (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mtime, f.statErr
}

func (f *fakeSource) Load(ctx context.Context) (*jira.Export, error) {
	f.loads.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return &jira.Export{Tickets: append([]jira.Ticket(nil), f.tickets...)}, nil
}

func (f *fakeSource) set(mtime time.Time, ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mtime = mtime
	f.tickets = nil
	for _, id := range ids {
		f.tickets = append(f.tickets, jira.Ticket{ID: id, Project: "Commerce"})
	}
}

func TestRefreshIfStale(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{}
	src.set(base, "A")

	cache := NewCache(src)
	assert.Nil(t, cache.Current())

	first, err := cache.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Tickets, 1)
	assert.Same(t, first, cache.Current())

	// Same mtime: cached snapshot, no reload.
	again, err := cache.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)
	assert.Equal(t, int32(1), src.loads.Load())

	// Older mtime never triggers a reload either.
	src.set(base.Add(-time.Hour), "A", "B")
	again, err = cache.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.Same(t, first, again)

	// Newer mtime replaces the whole snapshot.
	src.set(base.Add(time.Minute), "A", "B")
	second, err := cache.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Len(t, second.Tickets, 2)
	assert.Len(t, first.Tickets, 1, "old snapshot is untouched")
	assert.Equal(t, int32(2), src.loads.Load())
}

func TestRefreshIfStaleKeepsSnapshotOnFailure(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{}
	src.set(base, "A")

	cache := NewCache(src)
	first, err := cache.RefreshIfStale(ctx)
	require.NoError(t, err)

	src.set(base.Add(time.Minute), "A", "B")
	src.loadErr = errors.New("truncated file")
	got, err := cache.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.Same(t, first, got)

	src.loadErr = nil
	src.statErr = errors.New("file vanished")
	got, err = cache.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestRefreshIfStaleErrorsWithoutSnapshot(t *testing.T) {
	src := &fakeSource{statErr: errors.New("missing")}
	_, err := NewCache(src).RefreshIfStale(context.Background())
	assert.Error(t, err)

	_, err = NewCache(nil).RefreshIfStale(context.Background())
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestRefreshIfStaleCollapsesConcurrentReloads(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{})}
	src.set(time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC), "A")
	cache := NewCache(src)

	var wg sync.WaitGroup
	results := make([]*Snapshot, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := cache.RefreshIfStale(context.Background())
			if err == nil {
				results[i] = snap
			}
		}(i)
	}

	// Let the goroutines pile up on the in-flight load before releasing it.
	require.Eventually(t, func() bool { return src.loads.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	for i, snap := range results {
		require.NotNil(t, snap, "caller %d", i)
		assert.Same(t, results[0], snap)
	}
	assert.Equal(t, int32(1), src.loads.Load())
}

func TestCacheWithCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jira_metrics.csv")
	require.NoError(t, os.WriteFile(path, []byte("ID,Project\nDMA-1,Commerce\n"), 0644))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	cache := NewCache(jira.CSVSource{Path: path})
	first, err := cache.RefreshIfStale(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Tickets, 1)

	require.NoError(t, os.WriteFile(path, []byte("ID,Project\nDMA-1,Commerce\nDMA-2,Content\n"), 0644))
	newer := old.Add(30 * time.Minute)
	require.NoError(t, os.Chtimes(path, newer, newer))

	second, err := cache.RefreshIfStale(context.Background())
	require.NoError(t, err)
	assert.Len(t, second.Tickets, 2)
	assert.Equal(t, []string{"Commerce", "Content"}, second.Projects(nil))
	assert.Equal(t, []string{"Content"}, second.Projects([]string{"Content", "Other"}))
}
