package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlens/medlens/pkg/retry"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	p := retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_Exhausted(t *testing.T) {
	p := retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}

	opErr := errors.New("model unavailable")
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return opErr
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, opErr)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestDo_FirstTrySuccess(t *testing.T) {
	p := retry.Policy{MaxAttempts: 3, Delay: time.Hour}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCanceledBetweenAttempts(t *testing.T) {
	p := retry.Policy{MaxAttempts: 5, Delay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := p.Do(ctx, func(context.Context) error {
		calls++
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	p := retry.Policy{}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("nope")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
