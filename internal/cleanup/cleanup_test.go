package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	removed int64
	err     error
}

func (f *fakePruner) DeleteGrabsOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cutoffs = append(f.cutoffs, cutoff)

	return f.removed, f.err
}

func (f *fakePruner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.cutoffs)
}

func TestPruneHistory(t *testing.T) {
	repo := &fakePruner{removed: 3}

	before := time.Now()

	n, err := PruneHistory(context.Background(), repo, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.Len(t, repo.cutoffs, 1)
	assert.WithinDuration(t, before.Add(-24*time.Hour), repo.cutoffs[0], time.Second)
}

func TestPruneHistory_Error(t *testing.T) {
	wantErr := errors.New("disk full")

	n, err := PruneHistory(context.Background(), &fakePruner{err: wantErr}, time.Hour)
	assert.ErrorIs(t, err, wantErr)
	assert.Zero(t, n)
}

func TestScheduler_RunsImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &fakePruner{}

	s, err := NewScheduler(ctx, repo, time.Hour, time.Hour)
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return repo.calls() >= 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
