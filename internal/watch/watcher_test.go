package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/canopy-docs/canopy/internal/discovery"
)

func TestWatcher_TriggersAfterDebounceOnFileChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a"), 0o644))

	var triggered atomic.Bool
	w, err := New(root, 50*time.Millisecond, discovery.NewMatcher(nil), func() {
		triggered.Store(true)
	}, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package a // changed"), 0o644))

	require.Eventually(t, func() bool { return triggered.Load() }, time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoresExcludedDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor"), 0o755))

	matcher := discovery.NewMatcher([]string{"vendor/"})
	var triggered atomic.Bool
	w, err := New(root, 50*time.Millisecond, matcher, func() {
		triggered.Store(true)
	}, nil)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "vendor", "lib.go"), []byte("package lib"), 0o644))

	time.Sleep(300 * time.Millisecond)
	require.False(t, triggered.Load())
}

func TestWatcher_CloseStopsRunLoop(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, 50*time.Millisecond, nil, func() {}, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = w.Run(context.Background())
		close(done)
	}()

	require.NoError(t, w.Close())
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}
