package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-inc/keygate/internal/shared/logger"
)

func TestDrainStopsOnShortBatch(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)

	batches := []int{10, 10, 3, 10}
	calls := 0
	m.drain(context.Background(), "test", BatchJobFunc(func(context.Context) (int, error) {
		n := batches[calls]
		calls++
		return n, nil
	}), 10)
	assert.Equal(t, 3, calls)
}

func TestDrainStopsOnError(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)

	calls := 0
	m.drain(context.Background(), "test", BatchJobFunc(func(context.Context) (int, error) {
		calls++
		return 10, errors.New("boom")
	}), 10)
	assert.Equal(t, 1, calls)
}

func TestRegisterAndStop(t *testing.T) {
	m, err := NewSchedulerManager(logger.NewNopLogger())
	require.NoError(t, err)

	noop := BatchJobFunc(func(context.Context) (int, error) { return 0, nil })
	require.NoError(t, m.RegisterExpirySweep(noop, time.Hour, 100))
	require.NoError(t, m.RegisterIdempotencyPurge(noop, time.Hour, 100))
	assert.Len(t, m.Jobs(), 2)

	m.Start()
	assert.True(t, m.IsStarted())
	require.NoError(t, m.Stop())
	assert.False(t, m.IsStarted())
}
