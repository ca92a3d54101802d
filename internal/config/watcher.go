package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceWindow coalesces the write bursts editors produce when saving.
const debounceWindow = 150 * time.Millisecond

// Watcher watches a layout file and invokes a reload callback when it
// changes. The parent directory is watched rather than the file itself,
// so atomic rename-into-place saves are observed too.
type Watcher struct {
	path   string
	fsw    *fsnotify.Watcher
	reload func()
	log    *zap.Logger
}

// NewWatcher creates a watcher for the layout file. The reload callback
// runs on the watcher goroutine after changes settle.
func NewWatcher(path string, reload func(), log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{path: abs, fsw: fsw, reload: reload, log: log}, nil
}

// Run delivers debounced reloads until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var (
		pending bool
		settle  *time.Timer
		settleC <-chan time.Time
	)
	arm := func() {
		if settle == nil {
			settle = time.NewTimer(debounceWindow)
		} else {
			if !settle.Stop() {
				select {
				case <-settle.C:
				default:
				}
			}
			settle.Reset(debounceWindow)
		}
		settleC = settle.C
		pending = true
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("layout file changed", zap.String("op", ev.Op.String()))
			arm()

		case <-settleC:
			settleC = nil
			if pending {
				pending = false
				w.reload()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}
