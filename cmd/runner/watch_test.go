// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// lockedBuffer is a bytes.Buffer safe for the watcher goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_RerunsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Runfile"), []byte("build:\n    @echo built\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr lockedBuffer
	app := NewApp(Dependencies{ConfigDir: t.TempDir(), WorkDir: dir, Stdout: &stdout, Stderr: &stderr})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- app.Execute(ctx, []string{"--runtime", "virtual", "--watch", "**/*.txt", "build"})
	}()

	waitFor := func(n int) {
		t.Helper()
		deadline := time.Now().Add(10 * time.Second)
		for strings.Count(stdout.String(), "built\n") < n {
			if time.Now().After(deadline) {
				t.Fatalf("want %d runs, stdout = %q, stderr = %q", n, stdout.String(), stderr.String())
			}
			time.Sleep(20 * time.Millisecond)
		}
	}

	waitFor(1)
	// Give the watcher time to register the tree after the initial run.
	deadline := time.Now().Add(10 * time.Second)
	for !strings.Contains(stderr.String(), "Watching for changes") {
		if time.Now().After(deadline) {
			t.Fatalf("watcher did not start: %q", stderr.String())
		}
		time.Sleep(20 * time.Millisecond)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(2)

	cancel()
	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("exit code = %d, want 0 after cancellation", code)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("watch mode did not stop after cancellation")
	}
}

func TestWatch_DryRunRejected(t *testing.T) {
	t.Parallel()

	code, _, stderr := runApp(t, "build:\n    echo hi\n", "--watch", "*.go", "--dry-run", "build")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "dry-run") {
		t.Errorf("stderr = %q, want mutual exclusion error", stderr)
	}
}
