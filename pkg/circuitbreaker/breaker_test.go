package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBreaker(timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker("test", Config{
		MaxRequests:      1,
		Timeout:          timeout,
		FailureThreshold: 3,
		SuccessThreshold: 1,
	})
}

func trip(t *testing.T, cb *CircuitBreaker) {
	t.Helper()
	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func() error {
			return errors.New("boom")
		})
		require.Error(t, err)
	}
}

func TestClosedPassesThrough(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	err := cb.Execute(context.Background(), func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	trip(t, cb)
	assert.Equal(t, StateOpen, cb.State())

	executed := false
	err := cb.Execute(context.Background(), func() error {
		executed = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, executed, "open breaker must not invoke the operation")
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	cb := newTestBreaker(time.Minute)

	for i := 0; i < 2; i++ {
		cb.Execute(context.Background(), func() error { return errors.New("boom") })
	}
	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))

	for i := 0; i < 2; i++ {
		cb.Execute(context.Background(), func() error { return errors.New("boom") })
	}
	assert.Equal(t, StateClosed, cb.State(), "streak restarted after the success")
}

func TestHalfOpenClosesOnProbeSuccess(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)

	trip(t, cb)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestHalfOpenReopensOnProbeFailure(t *testing.T) {
	cb := newTestBreaker(10 * time.Millisecond)

	trip(t, cb)
	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(context.Background(), func() error { return errors.New("still down") })
	require.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}
