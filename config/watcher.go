package config

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of file events to
// settle before reloading.
const DefaultDebounce = 50 * time.Millisecond

// Watcher reloads a provider file into a Store when the file changes.
type Watcher struct {
	filename string
	store    *Store
	onReload func()
	debounce time.Duration

	fsw       *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Watch loads filename into store and starts watching it. After each
// successful reload onReload, if not nil, is called. A reload that fails keeps
// the previous providers.
//
// The parent directory is watched rather than the file, so that editors that
// save by renaming a temporary file over the original are followed.
func Watch(filename string, store *Store, onReload func()) (*Watcher, error) {
	if filename == "" {
		return nil, errors.New("no provider file")
	}
	filename = filepath.Clean(filename)

	providers, err := Load(filename)
	if err != nil {
		return nil, err
	}
	store.Set(FileSource, providers)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err = fsw.Add(filepath.Dir(filename)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		filename: filename,
		store:    store,
		onReload: onReload,
		debounce: DefaultDebounce,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.filename {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Errorw("Provider file watch error", "file", w.filename, "err", err)
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) reload() {
	providers, err := Load(w.filename)
	if err != nil {
		log.Errorw("Cannot reload provider file", "file", w.filename, "err", err)
		return
	}
	w.store.Set(FileSource, providers)
	log.Infow("Reloaded provider file", "file", w.filename)
	if w.onReload != nil {
		w.onReload()
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}
