package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/canopy-docs/canopy/internal/core"
	"github.com/stretchr/testify/require"
)

func TestInvoke_Success(t *testing.T) {
	s := New(nil)
	res, err := s.Invoke(context.Background(), InvokeRequest{
		Command: "echo",
		Args:    []string{"hello"},
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	require.Contains(t, string(res.Stdout), "hello")
	require.Equal(t, 0, res.ExitCode)
}

func TestInvoke_NonZeroExit(t *testing.T) {
	s := New(nil)
	_, err := s.Invoke(context.Background(), InvokeRequest{
		Command: "sh",
		Args:    []string{"-c", "exit 3"},
		Timeout: 5 * time.Second,
	})
	require.Error(t, err)
	require.True(t, core.IsCategory(err, core.ErrCatSubprocess))
	require.False(t, core.IsRetryable(err))
}

func TestInvoke_Timeout(t *testing.T) {
	s := New(nil)
	res, err := s.Invoke(context.Background(), InvokeRequest{
		Command: "sleep",
		Args:    []string{"5"},
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	require.True(t, res.TimedOut)
	require.True(t, core.IsCategory(err, core.ErrCatTimeout))
	require.False(t, core.IsRetryable(err))
}

func TestInvoke_CommandNotFound(t *testing.T) {
	s := New(nil)
	_, err := s.Invoke(context.Background(), InvokeRequest{
		Command: "definitely-not-a-real-binary-xyz",
		Timeout: 2 * time.Second,
	})
	require.Error(t, err)
	require.True(t, core.IsCategory(err, core.ErrCatSpawn))
}

func TestInvoke_BufferExceeded(t *testing.T) {
	s := New(nil)
	_, err := s.Invoke(context.Background(), InvokeRequest{
		Command: "sh",
		Args:    []string{"-c", "yes | head -c 20000000"},
		Timeout: 10 * time.Second,
	})
	require.Error(t, err)
	require.True(t, core.IsCategory(err, core.ErrCatBuffer))
}

func TestKillAll_NoLiveChildren(t *testing.T) {
	s := New(nil)
	s.KillAll() // must not panic with nothing tracked
	require.Empty(t, s.LiveChildren())
}
