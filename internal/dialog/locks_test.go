package dialog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLocks(t *testing.T) {
	locks := newSessionLocks()

	unlock, err := locks.Lock(context.Background(), "u1")
	require.NoError(t, err)

	t.Run("other sessions proceed", func(t *testing.T) {
		other, err := locks.Lock(context.Background(), "u2")
		require.NoError(t, err)
		other()
	})

	t.Run("same session waits until ctx is done", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := locks.Lock(ctx, "u1")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	assert.Equal(t, 1, locks.len())
	unlock()
	unlock() // second release is ignored
	assert.Equal(t, 0, locks.len())

	again, err := locks.Lock(context.Background(), "u1")
	require.NoError(t, err)
	again()
}
