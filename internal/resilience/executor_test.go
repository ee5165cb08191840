package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(breaker bool) Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      breaker,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	}
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(fastConfig(false))
	errTemp := errors.New("temporary")
	attempts := 0

	err := exec.Execute(context.Background(), "manifest", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) Classification {
		return Classification{Retryable: errors.Is(err, errTemp), RecordFailure: true}
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestExecuteStopsOnPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastConfig(false))
	errPermanent := errors.New("not found")
	attempts := 0

	err := exec.Execute(context.Background(), "data", func(context.Context) error {
		attempts++
		return errPermanent
	}, nil)
	require.ErrorIs(t, err, errPermanent)
	assert.Equal(t, 1, attempts)
}

func TestExecuteReturnsLastErrorAfterExhaustion(t *testing.T) {
	exec := NewExecutor(fastConfig(false))
	errTemp := errors.New("flaky")
	attempts := 0

	err := exec.Execute(context.Background(), "data", func(context.Context) error {
		attempts++
		return errTemp
	}, func(error) Classification { return Classification{Retryable: true, RecordFailure: true} })
	require.ErrorIs(t, err, errTemp)
	assert.Equal(t, 3, attempts)
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	cfg := fastConfig(true)
	cfg.RetryMaxAttempts = 1
	exec := NewExecutor(cfg)
	errDown := errors.New("down")
	fail := func(context.Context) error { return errDown }

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, exec.Execute(context.Background(), "stats", fail, nil), errDown)
	}
	err := exec.Execute(context.Background(), "stats", fail, nil)
	require.Error(t, err)
	assert.True(t, IsCircuitOpen(err), "expected open breaker, got %v", err)
}

func TestExecuteHonoursCancelledContext(t *testing.T) {
	exec := NewExecutor(fastConfig(false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false

	err := exec.Execute(ctx, "data", func(context.Context) error {
		called = true
		return nil
	}, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
