package scanner

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// WatchScanner is a FileScanner whose listing follows the filesystem:
// created files and directories are added, removed or renamed ones dropped.
type WatchScanner struct {
	*FileScanner
	fw      *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
}

// NewWatchScanner scans root and starts watching every walked directory.
// Call Stop to release the watcher.
func NewWatchScanner(root string, opts Options) (*WatchScanner, error) {
	fs, err := NewFileScanner(root, opts)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &WatchScanner{
		FileScanner: fs,
		fw:          fw,
		done:        make(chan struct{}),
	}
	if err := w.FileScanner.rescan(w.watchDir); err != nil {
		fw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Flush rescans the tree immediately, re-registering directory watches.
func (w *WatchScanner) Flush() error {
	return w.FileScanner.rescan(w.watchDir)
}

// Under returns a Scanner limited to the paths below dir. Flushing it rescans
// the whole tree and re-registers watches.
func (w *WatchScanner) Under(dir string) *ScopedScanner {
	return &ScopedScanner{files: w.FileScanner, flusher: w, prefix: dirPrefix(dir)}
}

// Stop ends watching. Safe to call more than once.
func (w *WatchScanner) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.done)
	w.mu.Unlock()

	err := w.fw.Close()
	w.wg.Wait()
	return err
}

func (w *WatchScanner) watchDir(abs string) {
	if err := w.fw.Add(abs); err != nil {
		log.Warnf("Cannot watch %s: %v", abs, err)
	}
}

func (w *WatchScanner) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Warnf("Watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

func (w *WatchScanner) handle(event fsnotify.Event) {
	rel, ok := w.relative(event.Name)
	if !ok || rel == "" || !w.allowed(rel) {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if w.descend(rel, info.Name()) {
				w.addTree(event.Name, w.watchDir)
			}
			return
		}
		w.add(rel)
		log.Debugf("Watcher added %s", rel)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.remove(rel)
		log.Debugf("Watcher removed %s", rel)
	}
}
