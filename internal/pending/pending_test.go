package pending

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_RunsAfterDelay(t *testing.T) {
	var g Gate
	started := time.Now()

	op, err := Start(context.Background(), &g, 20*time.Millisecond, func(context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.True(t, op.Pending())
	assert.True(t, g.Busy())

	v, err := op.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.GreaterOrEqual(t, time.Since(started), 20*time.Millisecond)
	assert.False(t, op.Pending())
	assert.False(t, g.Busy())
}

func TestStart_RejectsWhileInFlight(t *testing.T) {
	var g Gate
	release := make(chan struct{})

	op, err := Start(context.Background(), &g, 0, func(context.Context) (struct{}, error) {
		<-release
		return struct{}{}, nil
	})
	require.NoError(t, err)

	_, err = Start(context.Background(), &g, 0, func(context.Context) (struct{}, error) {
		t.Error("second operation must not run")
		return struct{}{}, nil
	})
	require.ErrorIs(t, err, ErrInFlight)

	close(release)
	_, err = op.Wait(context.Background())
	require.NoError(t, err)

	again, err := Start(context.Background(), &g, 0, func(context.Context) (struct{}, error) {
		return struct{}{}, nil
	})
	require.NoError(t, err)
	_, err = again.Wait(context.Background())
	require.NoError(t, err)
}

func TestStart_PropagatesError(t *testing.T) {
	var g Gate
	boom := errors.New("boom")

	op, err := Start(context.Background(), &g, 0, func(context.Context) (string, error) {
		return "", boom
	})
	require.NoError(t, err)

	_, err = op.Wait(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestStart_CancelSkipsContinuation(t *testing.T) {
	var g Gate
	var called atomic.Bool
	ctx, cancel := context.WithCancel(context.Background())

	op, err := Start(ctx, &g, time.Hour, func(context.Context) (int, error) {
		called.Store(true)
		return 1, nil
	})
	require.NoError(t, err)

	cancel()
	<-op.Done()

	_, err = op.Wait(context.Background())
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called.Load())
	assert.False(t, g.Busy())
}

func TestOp_WaitContextEnds(t *testing.T) {
	var g Gate
	op, err := Start(context.Background(), &g, time.Hour, func(context.Context) (int, error) {
		return 1, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = op.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, op.Pending())
}
