package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nicemagician/nice-classification/internal/domain/ports"
)

func TestNewFSNotifyWatcher(t *testing.T) {
	w, err := NewFSNotifyWatcher(nil)
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher failed: %v", err)
	}
	defer w.Stop()

	if len(w.extensions) != 1 || w.extensions[0] != ".csv" {
		t.Errorf("expected default extensions [.csv], got %v", w.extensions)
	}
}

func TestFSNotifyWatcher_Watch(t *testing.T) {
	dir := t.TempDir()

	w, err := NewFSNotifyWatcher([]string{".csv"})
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher failed: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Watch(ctx, dir)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	file := filepath.Join(dir, "ipos_goods.csv")
	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(file, []byte("term,class\n"), 0644)
	}()

	select {
	case event := <-events:
		if event.Path != file {
			t.Errorf("expected path %s, got %s", file, event.Path)
		}
		if event.Operation != ports.FileCreated && event.Operation != ports.FileModified {
			t.Errorf("expected create or modify, got %v", event.Operation)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for file event")
	}
}

func TestFSNotifyWatcher_ExtensionFilter(t *testing.T) {
	dir := t.TempDir()

	w, err := NewFSNotifyWatcher([]string{".csv"})
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher failed: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Watch(ctx, dir)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644)
	}()

	select {
	case event := <-events:
		t.Errorf("expected no event for .txt file, got %v", event)
	case <-time.After(300 * time.Millisecond):
		// no event, as expected
	}
}

func TestFSNotifyWatcher_Stop(t *testing.T) {
	w, err := NewFSNotifyWatcher(nil)
	if err != nil {
		t.Fatalf("NewFSNotifyWatcher failed: %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestIsWatchedExtension(t *testing.T) {
	w := &FSNotifyWatcher{extensions: []string{".csv"}}

	tests := []struct {
		path string
		want bool
	}{
		{"alphabetical_en.csv", true},
		{"/data/uspto_id_manual.csv", true},
		{"readme.md", false},
		{"terms.csv.bak", false},
	}

	for _, tt := range tests {
		if got := w.isWatchedExtension(tt.path); got != tt.want {
			t.Errorf("isWatchedExtension(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
