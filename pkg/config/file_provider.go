package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/tweetwash/tweetwash/pkg/domain"
	"github.com/tweetwash/tweetwash/pkg/sanitise"
)

// FieldSnapshot is one immutable build of the allow-list. Snapshots are
// replaced wholesale on reload (copy-on-write), never mutated, so readers
// holding an old snapshot are unaffected by a concurrent rebuild.
type FieldSnapshot struct {
	Paths    []string
	Tree     sanitise.Tree
	LoadedAt time.Time
}

// FieldFileProvider watches a keep file and republishes the allow-list tree
// whenever the file changes.
type FieldFileProvider struct {
	path         string
	excludeMedia bool

	mu          sync.RWMutex
	snapshot    FieldSnapshot
	subscribers []chan FieldSnapshot

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

// NewFieldFileProvider loads the keep file once and starts watching its
// directory for changes. Watching the directory rather than the file keeps
// rename-based editor saves visible.
func NewFieldFileProvider(path string, excludeMedia bool) (*FieldFileProvider, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &FieldFileProvider{
		path:         absPath,
		excludeMedia: excludeMedia,
		watcher:      watcher,
		cancel:       cancel,
	}

	if err := p.load(); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, fmt.Errorf("initial keep-file load failed: %w", err)
	}

	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	go p.watchLoop(ctx)

	return p, nil
}

// CurrentSnapshot returns the most recent allow-list build.
func (p *FieldFileProvider) CurrentSnapshot() FieldSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Subscribe returns a channel receiving allow-list updates. The current
// snapshot is delivered immediately.
func (p *FieldFileProvider) Subscribe() <-chan FieldSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan FieldSnapshot, 1)
	p.subscribers = append(p.subscribers, ch)
	ch <- p.snapshot
	return ch
}

// Close stops the watcher and cleans up resources.
func (p *FieldFileProvider) Close() error {
	p.cancel()
	return p.watcher.Close()
}

func (p *FieldFileProvider) watchLoop(ctx context.Context) {
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}

			// Only this file matters; the watch covers the whole directory.
			if filepath.Clean(event.Name) != p.path {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Chmod) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := p.load(); err != nil {
						log.Error().Err(err).Str("path", p.path).Msg("Keep-file reload failed, previous allow-list stays active")
					} else {
						log.Info().Str("path", p.path).Msg("Allow-list rebuilt from keep file")
					}
				})
			}
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Keep-file watcher error")
		}
	}
}

func (p *FieldFileProvider) load() error {
	// #nosec G304 -- File path is configured at startup
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}

	paths := domain.ParseFieldList(string(data))
	if len(paths) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrFieldListEmpty, p.path)
	}
	if p.excludeMedia {
		paths = domain.ExcludeMedia(paths)
	}

	snapshot := FieldSnapshot{
		Paths:    paths,
		Tree:     sanitise.Build(paths),
		LoadedAt: time.Now(),
	}

	p.mu.Lock()
	p.snapshot = snapshot
	subscribers := make([]chan FieldSnapshot, len(p.subscribers))
	copy(subscribers, p.subscribers)
	p.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- snapshot:
		default:
			// Skip if channel is full (slow consumer)
		}
	}

	return nil
}
