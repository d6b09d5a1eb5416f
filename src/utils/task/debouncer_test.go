package task

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalesces(t *testing.T) {
	var calls atomic.Int32
	debouncer := NewDebouncer(50*time.Millisecond, func() { calls.Add(1) })

	require.True(t, debouncer.Trigger())
	for i := 0; i < 10; i++ {
		require.False(t, debouncer.Trigger())
	}
	require.True(t, debouncer.Pending())

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.False(t, debouncer.Pending())

	// Next window schedules again
	require.True(t, debouncer.Trigger())
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDebouncerCancel(t *testing.T) {
	var calls atomic.Int32
	debouncer := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

	debouncer.Trigger()
	debouncer.Cancel()
	time.Sleep(80 * time.Millisecond)
	require.Equal(t, int32(0), calls.Load())

	require.True(t, debouncer.Trigger())
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestDebouncerStop(t *testing.T) {
	var calls atomic.Int32
	debouncer := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

	debouncer.Trigger()
	debouncer.Stop()
	require.False(t, debouncer.Trigger())

	time.Sleep(80 * time.Millisecond)
	require.Equal(t, int32(0), calls.Load())
}
