package filesystem

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitInvalidate(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case path := <-ch:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for invalidation")
		return ""
	}
}

func TestWatcherReportsRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	events := make(chan string, 16)
	w, err := NewWatcher(func(p string) { events <- p })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	if err := w.SetDir(dir); err != nil {
		t.Fatalf("SetDir failed: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	if got := waitInvalidate(t, events); got != path {
		t.Errorf("invalidated %s, want %s", got, path)
	}
}

func TestWatcherReportsCreate(t *testing.T) {
	dir := t.TempDir()

	events := make(chan string, 16)
	w, err := NewWatcher(func(p string) { events <- p })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	if err := w.SetDir(dir); err != nil {
		t.Fatalf("SetDir failed: %v", err)
	}

	path := filepath.Join(dir, "new.jpg")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if got := waitInvalidate(t, events); got != path {
		t.Errorf("invalidated %s, want %s", got, path)
	}
}

func TestWatcherSwitchesFolders(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	events := make(chan string, 16)
	w, err := NewWatcher(func(p string) { events <- p })
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	if err := w.SetDir(dirA); err != nil {
		t.Fatalf("SetDir(A) failed: %v", err)
	}
	if err := w.SetDir(dirB); err != nil {
		t.Fatalf("SetDir(B) failed: %v", err)
	}
	// Same dir twice is a no-op.
	if err := w.SetDir(dirB); err != nil {
		t.Fatalf("SetDir(B) again failed: %v", err)
	}

	path := filepath.Join(dirB, "b.jpg")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if got := waitInvalidate(t, events); got != path {
		t.Errorf("invalidated %s, want %s", got, path)
	}
}

func TestWatcherSetDirMissingFolder(t *testing.T) {
	w, err := NewWatcher(nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}()

	if err := w.SetDir(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error watching a missing folder")
	}
}
