package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/I-Yanis-I/museum-app/internal/domain/idp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type zeroBackoff struct{}

func (zeroBackoff) Next(int) time.Duration { return 0 }

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	}, Policy{Name: "test", Attempts: 5, Backoff: zeroBackoff{}})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnNonRetryable(t *testing.T) {
	p := DefaultIdentityPolicy(nil)
	p.Backoff = zeroBackoff{}

	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return idp.ErrInvalidCredentials
	}, p)

	require.ErrorIs(t, err, idp.ErrInvalidCredentials)
	assert.Equal(t, 1, calls)
}

func TestDo_IdentityPolicyRetriesUnavailable(t *testing.T) {
	p := DefaultIdentityPolicy(nil)
	p.Backoff = zeroBackoff{}

	calls := 0
	var exhausted error
	p.OnExhaust = func(err error) { exhausted = err }
	err := Do(context.Background(), func() error {
		calls++
		return fmt.Errorf("delete user: %w", idp.ErrUnavailable)
	}, p)

	require.ErrorIs(t, err, idp.ErrUnavailable)
	assert.Equal(t, p.Attempts, calls)
	assert.ErrorIs(t, exhausted, idp.ErrUnavailable)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func() error {
		calls++
		cancel()
		return errors.New("boom")
	}, Policy{Attempts: 3, Backoff: ExpoJitter{Base: time.Hour}})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestExpoJitter_CapsAtMax(t *testing.T) {
	b := ExpoJitter{Base: time.Second, Max: 5 * time.Second}
	assert.Equal(t, time.Second, b.Next(0))
	assert.Equal(t, 4*time.Second, b.Next(2))
	assert.Equal(t, 5*time.Second, b.Next(10))
}
