package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 是 Watch 默认的防抖间隔。
const DefaultDebounce = 100 * time.Millisecond

// ReloadFunc 在每次重载后调用，err 非 nil 表示重载或监视出错，此时 cfg 仍是旧内容。
type ReloadFunc func(cfg Config, err error)

// WatchOption 配置 Watch。
type WatchOption func(*Watcher)

// WithDebounce 设置防抖间隔，间隔内的多次变更只触发一次重载。
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 监视配置文件并自动重载。
type Watcher struct {
	cfg      Config
	fs       *fsnotify.Watcher
	onReload ReloadFunc
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	closed  bool
	pending sync.WaitGroup
}

// Watch 创建 Watcher。调用方需要调用 Run 开始监视。
func Watch(cfg Config, onReload ReloadFunc, opts ...WatchOption) (*Watcher, error) {
	if cfg == nil || cfg.Path() == "" {
		return nil, ErrNotReloadable
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	dir := filepath.Dir(cfg.Path())
	if err := fs.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch %s: %w", dir, err), fs.Close())
	}
	w := &Watcher{cfg: cfg, fs: fs, onReload: onReload, debounce: DefaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Run 处理文件事件直到 ctx 结束，返回前关闭 Watcher 并等待进行中的重载完成。
func (w *Watcher) Run(ctx context.Context) error {
	defer w.close()
	name := filepath.Base(w.cfg.Path())
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) == name && ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				w.schedule()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.notify(fmt.Errorf("xconf: watch: %w", err))
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.pending.Add(1)
	w.timer = time.AfterFunc(w.debounce, func() {
		defer w.pending.Done()
		w.notify(w.cfg.Reload())
	})
}

func (w *Watcher) notify(err error) {
	if w.onReload != nil {
		w.onReload(w.cfg, err)
	}
}

func (w *Watcher) close() {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil && w.timer.Stop() {
		w.pending.Done()
	}
	w.mu.Unlock()
	w.pending.Wait()
	_ = w.fs.Close()
}
