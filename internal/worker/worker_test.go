package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, h *Handle) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := h.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "job did not finish")
	return err
}

func TestWorker_RunsJob(t *testing.T) {
	w := New()
	defer w.Close()

	var ran atomic.Bool
	h, err := w.Submit(KindScan, func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	require.NoError(t, err)

	assert.NoError(t, waitFor(t, h))
	assert.True(t, ran.Load())
	assert.Equal(t, KindScan, h.Kind())
}

func TestWorker_ReturnsJobError(t *testing.T) {
	w := New()
	defer w.Close()

	boom := errors.New("boom")
	h, err := w.Submit(KindPreview, func(ctx context.Context) error { return boom })
	require.NoError(t, err)

	assert.ErrorIs(t, waitFor(t, h), boom)
	assert.ErrorIs(t, h.Err(), boom)
}

func TestWorker_Serial(t *testing.T) {
	w := New()
	defer w.Close()

	var (
		mu      sync.Mutex
		order   []int
		running atomic.Int32
		overlap atomic.Bool
	)

	kinds := []Kind{KindScan, KindAnalysis, KindPreview}
	handles := make([]*Handle, 0, len(kinds))
	for i, kind := range kinds {
		h, err := w.Submit(kind, func(ctx context.Context) error {
			if running.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			running.Add(-1)
			return nil
		})
		require.NoError(t, err)
		handles = append(handles, h)
	}

	for _, h := range handles {
		require.NoError(t, waitFor(t, h))
	}
	assert.False(t, overlap.Load())
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestWorker_CancelsRunningJobOfSameKind(t *testing.T) {
	w := New()
	defer w.Close()

	started := make(chan struct{})
	first, err := w.Submit(KindAnalysis, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)
	<-started

	second, err := w.Submit(KindAnalysis, func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	assert.ErrorIs(t, waitFor(t, first), context.Canceled)
	assert.NoError(t, waitFor(t, second))
}

func TestWorker_DropsQueuedJobOfSameKind(t *testing.T) {
	w := New()
	defer w.Close()

	release := make(chan struct{})
	blocker, err := w.Submit(KindScan, func(ctx context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	var staleRan atomic.Bool
	stale, err := w.Submit(KindPreview, func(ctx context.Context) error {
		staleRan.Store(true)
		return nil
	})
	require.NoError(t, err)
	fresh, err := w.Submit(KindPreview, func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	close(release)

	require.NoError(t, waitFor(t, blocker))
	assert.ErrorIs(t, waitFor(t, stale), context.Canceled)
	assert.NoError(t, waitFor(t, fresh))
	assert.False(t, staleRan.Load())
}

func TestWorker_OtherKindsUnaffected(t *testing.T) {
	w := New()
	defer w.Close()

	release := make(chan struct{})
	scan, err := w.Submit(KindScan, func(ctx context.Context) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	require.NoError(t, err)

	preview, err := w.Submit(KindPreview, func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	close(release)
	assert.NoError(t, waitFor(t, scan))
	assert.NoError(t, waitFor(t, preview))
}

func TestWorker_IgnoredCancellationReportsCanceled(t *testing.T) {
	w := New()
	defer w.Close()

	h, err := w.Submit(KindAnalysis, func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	require.NoError(t, waitFor(t, h))

	started := make(chan struct{})
	proceed := make(chan struct{})
	slow, err := w.Submit(KindAnalysis, func(ctx context.Context) error {
		close(started)
		<-proceed
		return nil
	})
	require.NoError(t, err)
	<-started
	slow.Cancel()
	close(proceed)

	assert.ErrorIs(t, waitFor(t, slow), context.Canceled)
}

func TestWorker_Close(t *testing.T) {
	w := New()

	started := make(chan struct{})
	running, err := w.Submit(KindScan, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)
	<-started

	queued, err := w.Submit(KindPreview, func(ctx context.Context) error { return nil })
	require.NoError(t, err)

	w.Close()
	w.Close()

	assert.ErrorIs(t, running.Err(), context.Canceled)
	assert.ErrorIs(t, queued.Err(), context.Canceled)

	_, err = w.Submit(KindScan, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHandle_ErrBeforeDone(t *testing.T) {
	w := New()
	defer w.Close()

	release := make(chan struct{})
	h, err := w.Submit(KindScan, func(ctx context.Context) error {
		<-release
		return errors.New("late")
	})
	require.NoError(t, err)

	assert.NoError(t, h.Err())
	close(release)
	assert.Error(t, waitFor(t, h))
}
