package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func nextEvent(t *testing.T, w *Watcher, timeout time.Duration) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(timeout):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func expectQuiet(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for %s", ev.Path)
	case <-time.After(d):
	}
}

func TestDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.txt")
	writeFile(t, path, "สวัสดี")

	d1, size, err := Digest(path)
	require.NoError(t, err)
	assert.Equal(t, int64(len("สวัสดี")), size)

	d2, _, err := Digest(path)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	writeFile(t, path, "ครับ")
	d3, _, err := Digest(path)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestDigestNotFound(t *testing.T) {
	_, _, err := Digest(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestStartMissingPath(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "nope.toml")}, 100*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()
	assert.Error(t, w.Start())
}

func TestInitialEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.toml")
	writeFile(t, path, "name = \"x\"\n")

	w, err := New([]string{path}, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, w.WatchedPaths())
	require.NoError(t, w.Start())
	defer w.Stop()

	ev := nextEvent(t, w, 3*time.Second)
	assert.Equal(t, path, ev.Path)
	assert.Equal(t, int64(len("name = \"x\"\n")), ev.Size)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestDirectoryEvents(t *testing.T) {
	dir := t.TempDir()

	w, err := New([]string{dir}, 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	assert.Equal(t, 0, w.PendingFiles())

	path := filepath.Join(dir, "corpus.txt")
	writeFile(t, path, "test content")

	ev := nextEvent(t, w, 3*time.Second)
	assert.Equal(t, path, ev.Path)
	assert.Equal(t, int64(12), ev.Size)
}

func TestDebounce(t *testing.T) {
	dir := t.TempDir()

	w, err := New([]string{dir}, 300*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(dir, "layout.yaml")
	for i := 0; i < 5; i++ {
		writeFile(t, path, "v"+string(rune('0'+i)))
		time.Sleep(50 * time.Millisecond)
	}

	ev := nextEvent(t, w, 3*time.Second)
	assert.Equal(t, path, ev.Path)
	assert.Equal(t, int64(2), ev.Size)
	expectQuiet(t, w, time.Second)
}

func TestUnchangedSaveIsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.toml")
	writeFile(t, path, "a")

	w, err := New([]string{path}, 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	nextEvent(t, w, 3*time.Second)

	writeFile(t, path, "a")
	expectQuiet(t, w, 700*time.Millisecond)

	writeFile(t, path, "ab")
	ev := nextEvent(t, w, 3*time.Second)
	assert.Equal(t, int64(2), ev.Size)
}

func TestSingleFileIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.toml")
	writeFile(t, path, "a")

	w, err := New([]string{path}, 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	nextEvent(t, w, 3*time.Second)

	writeFile(t, filepath.Join(dir, "notes.txt"), "unrelated")
	expectQuiet(t, w, 700*time.Millisecond)
	assert.Equal(t, 0, w.PendingFiles())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.json")
	writeFile(t, path, "{}")

	w, err := New([]string{path}, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan Event, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(ev Event) {
			select {
			case got <- ev:
			default:
			}
		}, nil)
	}()

	select {
	case ev := <-got:
		assert.Equal(t, path, ev.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for callback")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// Run stopped the watcher; a second Stop is a no-op.
	assert.NoError(t, w.Stop())
}
