package indexer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	now := time.Unix(1000, 0)
	guard := NewGuard(15 * time.Second).WithClock(func() time.Time { return now })

	guard.Store("a", 1)

	// No cooldown, no shortcut
	_, ok := guard.Cached("a")
	require.False(t, ok)

	require.False(t, guard.Observe(errors.New("timeout")))
	require.True(t, guard.Observe(errors.New("unexpected status: 429 Too Many Requests")))

	v, ok := guard.Cached("a")
	require.True(t, ok)
	require.Equal(t, 1, v)

	_, ok = guard.Cached("b")
	require.False(t, ok)

	now = now.Add(15 * time.Second)
	_, ok = guard.Cached("a")
	require.False(t, ok)

	guard.Observe(ErrRateLimited)
	guard.Clear()
	_, ok = guard.Cached("a")
	require.False(t, ok)
}
