package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/zoobzio/formula"
)

// Watcher monitors a configuration file, rebuilds the engine when it
// changes and swaps it into an EngineRef. A configuration that fails to load
// leaves the current engine in place.
type Watcher struct {
	mu sync.Mutex
	// reloadMu serializes Reload so an older file read never replaces a
	// newer engine.
	reloadMu sync.Mutex

	path string
	ref  *formula.EngineRef
	log  logrus.FieldLogger

	fsWatcher *fsnotify.Watcher

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Debouncing: editors often write a file in several steps
	debounceDelay time.Duration
	eventTimer    *time.Timer

	onReload func(cfg *Config)
	onError  func(err error)
}

// WatcherOption configures the watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets the debounce delay for batching file events.
// Default is 100ms.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDelay = d
	}
}

// WithOnReload sets a callback run after a new engine is installed.
func WithOnReload(fn func(cfg *Config)) WatcherOption {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// WithOnError sets a callback for load and watch errors.
func WithOnError(fn func(err error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher creates a watcher for the configuration file at path.
func NewWatcher(path string, ref *formula.EngineRef, log logrus.FieldLogger, opts ...WatcherOption) (*Watcher, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:          abs,
		ref:           ref,
		log:           log.WithField("config", abs),
		fsWatcher:     fsw,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
		debounceDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. The file's directory is watched so that editors
// replacing the file by rename are seen.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if err := w.fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Unlock()
		return err
	}
	w.running = true
	w.mu.Unlock()
	w.log.Info("config watcher started")

	go w.processEvents()
	return nil
}

// Stop stops the watcher and waits for event processing to end.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	if w.eventTimer != nil {
		w.eventTimer.Stop()
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.log.Info("config watcher stopped")
	return w.fsWatcher.Close()
}

func (w *Watcher) processEvents() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Error("watcher error")
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if w.eventTimer != nil {
		w.eventTimer.Stop()
	}
	w.eventTimer = time.AfterFunc(w.debounceDelay, w.Reload)
}

// Reload loads the configuration and installs a new engine. Concurrent calls
// run one at a time.
func (w *Watcher) Reload() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	cfg, err := Load(w.path)
	if err == nil {
		var engine *formula.Engine
		if engine, err = cfg.Build(w.log); err == nil {
			w.ref.Swap(engine)
			w.log.WithField("connectors", engine.Connectors()).Info("engine reloaded")
			if w.onReload != nil {
				w.onReload(cfg)
			}
			return
		}
	}

	w.log.WithError(err).Warn("config reload failed, keeping current engine")
	if w.onError != nil {
		w.onError(err)
	}
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
