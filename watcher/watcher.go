// Package watcher reloads settings files when they change on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	langopts "github.com/goliatone/go-langopts"
	"github.com/goliatone/go-langopts/loader"
)

const (
	// DefaultDebounce coalesces the burst of events editors emit per save.
	DefaultDebounce = 300 * time.Millisecond

	readyTimeout = 5 * time.Second
	stopTimeout  = 5 * time.Second
	// reAddDelay lets an atomic rename finish before the watch is re-added.
	reAddDelay = 50 * time.Millisecond
)

// LoadFunc produces a fresh snapshot from the watched files.
type LoadFunc func() (langopts.Snapshot, error)

// ReloadFunc receives every snapshot that loaded successfully. An error is
// logged and the watcher keeps running.
type ReloadFunc func(snapshot langopts.Snapshot) error

// ErrAlreadyStarted is returned by Start on a Watcher that has already
// started. A stopped Watcher cannot be restarted; build a new one.
var ErrAlreadyStarted = errors.New("watcher: already started")

// Config holds the watcher settings.
type Config struct {
	// Paths are the settings files to watch, weakest first.
	Paths []string
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Load defaults to loader.Load over Paths.
	Load   LoadFunc
	Logger *zap.Logger
}

// Watcher watches settings files and hands reloaded snapshots to a
// ReloadFunc. A failed reload keeps the previous snapshot in place.
type Watcher struct {
	config   Config
	reload   ReloadFunc
	log      *zap.Logger
	watched  map[string]struct{}
	cancel   context.CancelFunc
	started  bool
	stopped  chan struct{}
	ready    chan struct{}
	mu       sync.Mutex
	reloadMu sync.Mutex

	debounceTimer *time.Timer
}

// New validates config and builds a Watcher.
func New(config Config, reload ReloadFunc) (*Watcher, error) {
	if len(config.Paths) == 0 {
		return nil, errors.New("watcher: at least one path is required")
	}
	if reload == nil {
		return nil, errors.New("watcher: reload callback is required")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Load == nil {
		paths := append([]string(nil), config.Paths...)
		config.Load = func() (langopts.Snapshot, error) {
			return loader.Load(paths...)
		}
	}

	watched := make(map[string]struct{}, len(config.Paths))
	for _, path := range config.Paths {
		watched[filepath.Clean(path)] = struct{}{}
	}

	return &Watcher{
		config:  config,
		reload:  reload,
		log:     config.Logger.Named("watcher"),
		watched: watched,
		stopped: make(chan struct{}),
		ready:   make(chan struct{}),
	}, nil
}

// ForResolver returns a ReloadFunc that installs each snapshot on r.
func ForResolver(r *langopts.Resolver) ReloadFunc {
	return func(snapshot langopts.Snapshot) error {
		r.Update(snapshot)
		return nil
	}
}

// Start loads the files once, delivers the snapshot and then watches for
// changes in the background. It returns once the watch is established.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.started = true
	w.mu.Unlock()

	if err := w.initialLoad(); err != nil {
		w.mu.Lock()
		w.started = false
		w.mu.Unlock()
		return err
	}
	w.log.Info("settings loaded", zap.Strings("paths", w.config.Paths))

	watchCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	go w.watchLoop(watchCtx)

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(readyTimeout):
		return errors.New("watcher: timeout waiting for file watcher to initialize")
	}
}

func (w *Watcher) initialLoad() error {
	initial, err := w.config.Load()
	if err != nil {
		return fmt.Errorf("watcher: initial load: %w", err)
	}
	if err := w.reload(initial); err != nil {
		return fmt.Errorf("watcher: initial reload: %w", err)
	}
	return nil
}

func (w *Watcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.Error("failed to create file watcher", zap.Error(err))
		return
	}
	defer fsw.Close()

	for path := range w.watched {
		if err := fsw.Add(path); err != nil {
			w.log.Warn("failed to watch settings file", zap.String("path", path), zap.Error(err))
		}
	}
	w.log.Debug("watching settings files", zap.Duration("debounce", w.config.Debounce))
	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.mu.Unlock()
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if _, tracked := w.watched[filepath.Clean(event.Name)]; !tracked {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				// Atomic saves replace the inode; watch the new file.
				time.Sleep(reAddDelay)
				if err := fsw.Add(event.Name); err != nil {
					w.log.Warn("failed to re-add watch", zap.String("path", event.Name), zap.Stringer("op", event.Op), zap.Error(err))
				}
			}
			w.schedule(ctx)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.Debounce, func() {
		w.reloadNow(ctx)
	})
}

func (w *Watcher) reloadNow(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	snapshot, err := w.config.Load()
	if err != nil {
		w.log.Warn("settings reload failed, keeping previous snapshot", zap.Error(err))
		return
	}
	if err := w.reload(snapshot); err != nil {
		w.log.Warn("settings reload callback failed", zap.Error(err))
		return
	}
	w.log.Info("settings reloaded")
}

// Stop cancels the watch and waits for the loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	cancel := w.cancel
	w.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-w.stopped:
		return nil
	case <-time.After(stopTimeout):
		return errors.New("watcher: timeout waiting for watcher to stop")
	}
}
