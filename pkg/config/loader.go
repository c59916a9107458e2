package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

const reloadDelay = 100 * time.Millisecond

// Loader owns the current config and reloads it when the file changes.
// Without a path it serves the defaults.
type Loader struct {
	fs   afero.Fs
	path string

	mu        sync.RWMutex
	current   *Config
	listeners []func(*Config)

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
}

func NewLoader(fs afero.Fs, path string) *Loader {
	return &Loader{fs: fs, path: path, current: Default()}
}

func (l *Loader) Path() string {
	return l.path
}

// Load reads the file and makes it current.
func (l *Loader) Load() (*Config, error) {
	if l.path == "" {
		return l.Config(), nil
	}
	cfg, err := Load(l.fs, l.path)
	if err != nil {
		return nil, err
	}
	l.set(cfg)
	return cfg, nil
}

func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Override replaces the current config without touching the file, e.g.
// with LSP initialization options. Listeners are notified.
func (l *Loader) Override(cfg *Config) {
	l.set(cfg)
}

// OnChange registers fn to run after every successful reload.
func (l *Loader) OnChange(fn func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

func (l *Loader) set(cfg *Config) {
	l.mu.Lock()
	l.current = cfg
	listeners := append([]func(*Config){}, l.listeners...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(cfg)
	}
}

// Watch reloads the config whenever its file is written. Bursts of events
// are coalesced. Invalid files are logged and the previous config kept.
func (l *Loader) Watch(ctx context.Context) error {
	if l.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating config watcher: %w", err)
	}
	// editors replace files on save, so watch the directory
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		_ = watcher.Close()
		return errors.Errorf("watching %s: %w", filepath.Dir(l.path), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	l.watcher = watcher
	l.cancel = cancel
	go l.watchLoop(ctx)
	return nil
}

func (l *Loader) watchLoop(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(l.path) || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDelay, func() { l.reload(ctx) })
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", l.path).Msg("config watcher error")
		}
	}
}

func (l *Loader) reload(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := l.Load(); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("path", l.path).Msg("keeping previous config")
		return
	}
	zerolog.Ctx(ctx).Info().Str("path", l.path).Msg("config reloaded")
}

func (l *Loader) Close() error {
	if l.cancel != nil {
		l.cancel()
	}
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}
