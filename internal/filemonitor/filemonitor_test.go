package filemonitor

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestMonitorReportsFileWrite(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{}, 1)

	m, err := New(func(path string) {
		mu.Lock()
		seen = append(seen, path)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer m.Close()

	if err := m.Watch(dir); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	m.Start()

	target := filepath.Join(dir, "asset.txt")
	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a change notification")
	}

	mu.Lock()
	n := len(seen)
	mu.Unlock()
	if n == 0 {
		t.Fatal("expected at least one reported change")
	}
}

func TestCloseIsIdempotentAndJoins(t *testing.T) {
	m, err := New(nil, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
}
