package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/l0p7/regiond/internal/hierarchy"
)

// SeedWatcher monitors a seed document and invokes the supplied callback with
// a freshly parsed node set whenever the file changes. Stop must be called to
// release filesystem resources.
type SeedWatcher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Stop halts the watcher and waits for the underlying goroutine to exit.
func (w *SeedWatcher) Stop() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}

// WatchSeed wires fsnotify around the seed file and reloads it on any
// relevant change. Reload errors keep the previous snapshot in place and are
// reported through onError.
func WatchSeed(ctx context.Context, path string, onChange func([]hierarchy.Node), onError func(error)) (*SeedWatcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("store: watch seed requires a change callback")
	}
	resolved, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("store: resolve seed file: %w", err)
	}
	target := filepath.Clean(resolved)

	watchCtx, cancel := context.WithCancel(ctx)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("store: watch seed: %w", err)
	}
	// Watch the directory rather than the file so editors that replace the
	// file on save keep the watch alive.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		cancel()
		_ = watcher.Close()
		return nil, fmt.Errorf("store: watch seed dir: %w", err)
	}

	done := make(chan struct{})
	w := &SeedWatcher{cancel: cancel, done: done}

	go func() {
		defer close(done)
		defer func() {
			if err := watcher.Close(); err != nil && onError != nil {
				onError(fmt.Errorf("store: watch seed close: %w", err))
			}
		}()

		reload := func() {
			nodes, err := LoadSeed(target)
			if err != nil {
				if onError != nil {
					onError(err)
				}
				return
			}
			onChange(nodes)
		}

		const debounce = 25 * time.Millisecond
		var reloadTimer *time.Timer
		var reloadSignal <-chan time.Time
		scheduleReload := func() {
			if reloadTimer == nil {
				reloadTimer = time.NewTimer(debounce)
			} else {
				if !reloadTimer.Stop() {
					select {
					case <-reloadTimer.C:
					default:
					}
				}
				reloadTimer.Reset(debounce)
			}
			reloadSignal = reloadTimer.C
		}

		for {
			select {
			case <-watchCtx.Done():
				return
			case <-reloadSignal:
				reloadSignal = nil
				reload()
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && onError != nil {
					onError(fmt.Errorf("store: seed file %s removed", target))
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) != 0 {
					scheduleReload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(fmt.Errorf("store: watch error: %w", err))
				}
			}
		}
	}()

	return w, nil
}
