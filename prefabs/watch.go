package prefabs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeKind classifies a changed file by what has to be rebuilt.
type ChangeKind int

const (
	ChangePrefab ChangeKind = iota + 1
	ChangeEffect
	ChangeScript
	ChangeShader
)

// Change is one debounced file event. Name is relative to the prefab dir.
type Change struct {
	Path string
	Name string
	Kind ChangeKind
}

const debounce = 100 * time.Millisecond

// Watcher reports edits to prefab, effect, script and shader files. Events is
// closed once the watcher stops.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	Events  chan Change
	Errors  chan error
	closeCh chan struct{}
	once    sync.Once
}

// NewWatcher watches root and its effects, scripts and shaders directories.
func NewWatcher(root string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	for _, sub := range []string{"effects", "scripts", "shaders"} {
		d := filepath.Join(root, sub)
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			if err := w.Add(d); err != nil {
				_ = w.Close()
				return nil, err
			}
		}
	}

	watcher := &Watcher{
		watcher: w,
		root:    root,
		Events:  make(chan Change, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Events)
	defer close(w.Errors)

	// Editors write a file in several steps; a change is reported once its
	// file has been quiet for the debounce period.
	pending := make(map[string]Change)
	due := make(map[string]time.Time)
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()
	rearm := func(now time.Time) {
		var next time.Time
		for _, t := range due {
			if next.IsZero() || t.Before(next) {
				next = t
			}
		}
		if !next.IsZero() {
			timer.Reset(max(next.Sub(now), 0))
		}
	}

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			change, ok := w.classify(event.Name)
			if !ok {
				continue
			}
			now := time.Now()
			pending[event.Name] = change
			due[event.Name] = now.Add(debounce)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			rearm(now)
		case now := <-timer.C:
			for name, t := range due {
				if t.After(now) {
					continue
				}
				change := pending[name]
				delete(pending, name)
				delete(due, name)
				select {
				case w.Events <- change:
				case <-w.closeCh:
					return
				}
			}
			rearm(time.Now())
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) classify(path string) (Change, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	change := Change{Path: path, Name: rel}
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".tengo":
		change.Kind = ChangeScript
	case ext == ".kage":
		change.Kind = ChangeShader
	case isSpecFile(path) && strings.HasPrefix(rel, "effects/"):
		change.Kind = ChangeEffect
	case isSpecFile(path):
		change.Kind = ChangePrefab
	default:
		return Change{}, false
	}
	return change, true
}

func isSpecFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
