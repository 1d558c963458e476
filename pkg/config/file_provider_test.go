package config

import (
	"os"
	"testing"
	"time"
)

func TestFieldFileProviderInitialLoad(t *testing.T) {
	path := writeTempFile(t, "fields.txt", "id, user.screen_name, entities.media")

	p, err := NewFieldFileProvider(path, false)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	defer p.Close()

	snap := p.CurrentSnapshot()
	if len(snap.Paths) != 3 {
		t.Fatalf("Expected 3 paths, got %v", snap.Paths)
	}
	if _, ok := snap.Tree["user"]; !ok {
		t.Errorf("Expected user node in tree:\n%s", snap.Tree)
	}
}

func TestFieldFileProviderExcludeMedia(t *testing.T) {
	path := writeTempFile(t, "fields.txt", "id, entities.media")

	p, err := NewFieldFileProvider(path, true)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	defer p.Close()

	snap := p.CurrentSnapshot()
	if _, ok := snap.Tree["entities"]; ok {
		t.Errorf("Expected entities.media to be excluded, got %v", snap.Paths)
	}
}

func TestFieldFileProviderMissingFile(t *testing.T) {
	if _, err := NewFieldFileProvider("/nonexistent/fields.txt", false); err == nil {
		t.Fatal("Expected error for missing keep file")
	}
}

func TestFieldFileProviderReload(t *testing.T) {
	path := writeTempFile(t, "fields.txt", "id")

	p, err := NewFieldFileProvider(path, false)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	defer p.Close()

	updates := p.Subscribe()

	// First delivery is the current snapshot.
	select {
	case snap := <-updates:
		if len(snap.Paths) != 1 {
			t.Fatalf("Expected initial snapshot with 1 path, got %v", snap.Paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for initial snapshot")
	}

	if err := os.WriteFile(path, []byte("id, text, user.screen_name"), 0o600); err != nil {
		t.Fatalf("Failed to rewrite keep file: %v", err)
	}

	// Reload is debounced; allow generous time for fsnotify delivery.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case snap := <-updates:
			if len(snap.Paths) == 3 {
				if _, ok := snap.Tree["text"]; !ok {
					t.Fatalf("Expected text in rebuilt tree, got %v", snap.Paths)
				}
				return
			}
		case <-deadline:
			t.Fatal("Timed out waiting for rebuilt snapshot")
		}
	}
}
