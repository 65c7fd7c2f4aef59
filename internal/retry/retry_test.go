package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
)

func fastConfig() Config {
	return Config{MaxRetries: 3, InitialDelay: time.Millisecond, BackoffMultiplier: 2, MaxDelay: 5 * time.Millisecond}
}

func TestDo_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		calls++
		if calls < 3 {
			return domainerrors.Database("find_profile", "database is locked", domainerrors.DBCodeBusy, nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		calls++
		return domainerrors.Validation("email", "invalid")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, domainerrors.KindValidation, domainerrors.KindOf(err))
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		calls++
		return domainerrors.Network("unreachable", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
}

func TestDo_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxRetries: 10, InitialDelay: time.Hour, BackoffMultiplier: 1}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, cfg, func(context.Context) error {
			calls++
			return domainerrors.Network("unreachable", nil)
		})
	}()

	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not stop after cancellation")
	}
}

func TestValue_ReturnsResult(t *testing.T) {
	v, err := Value(context.Background(), fastConfig(), func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestNextDelay_Caps(t *testing.T) {
	cfg := Config{BackoffMultiplier: 10, MaxDelay: 50 * time.Millisecond}
	assert.Equal(t, 50*time.Millisecond, nextDelay(10*time.Millisecond, cfg))

	cfg = Config{BackoffMultiplier: 0}
	assert.Equal(t, 10*time.Millisecond, nextDelay(10*time.Millisecond, cfg))
}
