package watcher_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/paneron/internal/watcher"
)

func startWatcher(t *testing.T, root string) <-chan []string {
	t.Helper()
	w, err := watcher.New(watcher.Config{
		Root:        root,
		Extension:   "yaml",
		DebounceDur: 50 * time.Millisecond,
	})
	require.NoError(t, err, "failed to create watcher")
	t.Cleanup(func() { _ = w.Stop() })

	onChange, err := w.Start()
	require.NoError(t, err, "failed to start watcher")
	return onChange
}

func expectBatch(t *testing.T, onChange <-chan []string) []string {
	t.Helper()
	select {
	case batch := <-onChange:
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("expected notification but got timeout")
		return nil
	}
}

func expectQuiet(t *testing.T, onChange <-chan []string, msg string) {
	t.Helper()
	select {
	case batch := <-onChange:
		t.Fatalf("%s: got %v", msg, batch)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	root := t.TempDir()
	itemDir := filepath.Join(root, "ds", "codes")
	require.NoError(t, os.MkdirAll(itemDir, 0o755))
	itemPath := filepath.Join(itemDir, "0b3f6a52-1c4e-4f0a-9d7b-2e8c5a1f3b6d.yaml")
	require.NoError(t, os.WriteFile(itemPath, []byte("id: x\n"), 0o644))

	onChange := startWatcher(t, root)

	// Rapid writes should coalesce into single notification
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(itemPath, []byte(fmt.Sprintf("id: x%d\n", i)), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	batch := expectBatch(t, onChange)
	require.Equal(t, []string{itemPath}, batch)

	expectQuiet(t, onChange, "unexpected second notification")
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	root := t.TempDir()
	notes := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("initial"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))

	onChange := startWatcher(t, root)

	require.NoError(t, os.WriteFile(notes, []byte("other content"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".paneron.yaml.tmp.123"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "index.yaml"), []byte("x"), 0o644))

	expectQuiet(t, onChange, "should not notify for unrelated files")
}

func TestWatcher_MetadataFiles(t *testing.T) {
	root := t.TempDir()
	onChange := startWatcher(t, root)

	meta := filepath.Join(root, "paneron.yaml")
	require.NoError(t, os.WriteFile(meta, []byte("title: reg\n"), 0o644))

	batch := expectBatch(t, onChange)
	assert.Contains(t, batch, meta)
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	onChange := startWatcher(t, root)

	dsDir := filepath.Join(root, "ds")
	require.NoError(t, os.MkdirAll(dsDir, 0o755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(50 * time.Millisecond)

	dsMeta := filepath.Join(dsDir, "register.yaml")
	require.NoError(t, os.WriteFile(dsMeta, []byte("name: ds\n"), 0o644))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case batch := <-onChange:
			for _, p := range batch {
				if p == dsMeta {
					return
				}
			}
		case <-deadline:
			t.Fatal("expected notification for file in new directory")
		}
	}
}

func TestWatcher_Stop(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(t.TempDir()))
	require.NoError(t, err, "failed to create watcher")

	_, err = w.Start()
	require.NoError(t, err, "failed to start watcher")

	done := make(chan struct{})
	go func() {
		err := w.Stop()
		assert.NoError(t, err, "Stop returned error")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("Stop() timed out - possible deadlock")
	}
}

func TestWatcher_StartMissingRoot(t *testing.T) {
	w, err := watcher.New(watcher.DefaultConfig(filepath.Join(t.TempDir(), "missing")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	_, err = w.Start()
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/srv/register")

	assert.Equal(t, "/srv/register", cfg.Root)
	assert.Equal(t, "yaml", cfg.Extension)
	assert.Equal(t, 500*time.Millisecond, cfg.DebounceDur)
}
