// Package watch follows the JavaScript source trees and restages files as
// they change while the dev server is running.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jasmined/internal/errors"
	"jasmined/internal/log"

	"github.com/fsnotify/fsnotify"
)

// EventBufferSize is the capacity of the FileChannel buffer.
const EventBufferSize = 64

// FileModification represents a file event detected by the watcher
type FileModification struct {
	Path      string
	Info      os.FileInfo
	Timestamp time.Time
	Op        fsnotify.Op
}

// Watcher monitors directory trees for file changes using fsnotify.
// Subdirectories created while running are watched as they appear.
type Watcher struct {
	directories []string
	fileModChan chan FileModification
	stopChan    chan struct{}
	done        chan struct{}
	fsWatcher   *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
	stopped bool
}

// New creates a new directory watcher using fsnotify
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	return &Watcher{
		fileModChan: make(chan FileModification, EventBufferSize),
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		fsWatcher:   fsWatcher,
	}, nil
}

// AddDirectory watches dir and every directory below it.
func (w *Watcher) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileError("directory does not exist", dir, errors.FileNotFound, err)
		}
		return errors.NewFileError("error accessing directory", dir, errors.FileAccessDenied, err)
	}
	if !info.IsDir() {
		return errors.NewFileError("not a directory", dir, errors.InvalidPath, nil)
	}

	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(p); err != nil {
			return errors.NewFileError("failed to add directory to watcher", p, errors.FileOperationFailed, err)
		}
		w.track(p)
		return nil
	})
}

func (w *Watcher) track(dir string) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	for _, existing := range w.directories {
		if existing == dir {
			return
		}
	}
	w.directories = append(w.directories, dir)
	log.LogWithFields(log.F("directory", dir)).Debug("Watching directory")
}

// FileChannel returns the channel that delivers file modification events.
// It is closed once the watcher has stopped.
func (w *Watcher) FileChannel() <-chan FileModification {
	return w.fileModChan
}

// Start begins delivering events. A watcher can be started once.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.running || w.stopped {
		return errors.New("watcher already started")
	}
	w.running = true

	go w.loop()
	log.Debug("Watcher started")
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.fileModChan)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithError(err).Error("fsnotify watcher error")

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	// The file may already be gone again
	info, err := os.Stat(event.Name)
	if err != nil {
		if !os.IsNotExist(err) {
			log.LogWithFields(log.F("file", event.Name), log.F("error", err)).Error("Error stating file")
		}
		return
	}

	if info.IsDir() {
		if event.Op.Has(fsnotify.Create) {
			w.addCreatedDirectory(event.Name)
		}
		return
	}
	w.send(FileModification{Path: event.Name, Info: info, Timestamp: time.Now(), Op: event.Op})
}

// addCreatedDirectory watches a new subtree and reports the files that were
// written into it before the watch was in place.
func (w *Watcher) addCreatedDirectory(dir string) {
	if err := w.AddDirectory(dir); err != nil {
		log.LogWithError(err).Warn("Cannot watch new directory")
		return
	}
	filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil && info.Mode().IsRegular() {
			w.send(FileModification{Path: p, Info: info, Timestamp: time.Now(), Op: fsnotify.Create})
		}
		return nil
	})
}

func (w *Watcher) send(mod FileModification) {
	select {
	case w.fileModChan <- mod:
	default:
		log.LogWithFields(log.F("file", mod.Path)).Warn("Event channel is full, dropped event")
	}
}

// Stop halts the watcher and waits for the event channel to close.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if w.stopped {
		w.mutex.Unlock()
		return
	}
	wasRunning := w.running
	w.running = false
	w.stopped = true
	close(w.stopChan)
	w.mutex.Unlock()

	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithError(err).Error("Error closing fsnotify watcher")
	}
	if wasRunning {
		<-w.done
	} else {
		close(w.fileModChan)
	}
	log.Debug("Watcher stopped")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// GetDirectories returns the list of directories being watched
func (w *Watcher) GetDirectories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	dirsCopy := make([]string, len(w.directories))
	copy(dirsCopy, w.directories)
	return dirsCopy
}
