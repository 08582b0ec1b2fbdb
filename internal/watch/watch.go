// Package watch reruns generation when source images change on a local
// disk.
//
// A Watcher registers every directory under the source root with fsnotify,
// including directories created while it runs. Events for files the
// classifier rejects are ignored. Bursts of events are coalesced: the
// trigger runs once the tree has been quiet for the debounce interval.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ironsheep/image-craft/internal/variant"
)

// DefaultDebounce is the quiet period before a trigger.
const DefaultDebounce = 500 * time.Millisecond

// Trigger is called after a burst of relevant changes.
type Trigger func(ctx context.Context) error

// Options tune a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger

	// Ignore reports whether a change to the file at path, as delivered by
	// the filesystem, must not schedule a trigger. It is consulted after
	// every trigger returns, so a trigger may extend what it ignores.
	Ignore func(path string) bool
}

// Watcher watches one directory tree.
type Watcher struct {
	root       string
	classifier variant.Classifier
	trigger    Trigger
	ignore     func(string) bool
	debounce   time.Duration
	log        *slog.Logger
	ready      chan struct{}
}

// New returns a Watcher for the directory tree at root.
func New(root string, classifier variant.Classifier, trigger Trigger, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		root:       root,
		classifier: classifier,
		trigger:    trigger,
		ignore:     opts.Ignore,
		debounce:   opts.Debounce,
		log:        opts.Logger,
		ready:      make(chan struct{}),
	}
}

// Ready is closed once the initial tree is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is done. Trigger failures are logged and do not
// stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to watch %s: not a directory", w.root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer fw.Close()

	if _, err := w.addTree(fw, w.root); err != nil {
		return err
	}
	close(w.ready)
	w.log.Info("watching for changes", "root", w.root)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handle(fw, ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)

		case <-timer.C:
			w.log.Info("changes detected, regenerating")
			if err := w.trigger(ctx); err != nil {
				w.log.Error("regeneration failed", "error", err)
			}
		}
	}
}

// handle reports whether ev should schedule a trigger.
func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return false
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			found, err := w.addTree(fw, ev.Name)
			if err != nil {
				w.log.Warn("failed to watch new directory", "dir", ev.Name, "error", err)
			}
			return found
		}
	}
	return w.eligible(ev.Name)
}

// addTree watches dir and every directory below it, and reports whether
// the tree already holds eligible files.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if err := fw.Add(p); err != nil {
				return fmt.Errorf("failed to watch %s: %w", p, err)
			}
			return nil
		}
		if w.eligible(p) {
			found = true
		}
		return nil
	})
	return found, err
}

func (w *Watcher) eligible(p string) bool {
	if w.ignore != nil && w.ignore(p) {
		return false
	}
	rel, err := filepath.Rel(w.root, p)
	if err != nil {
		return false
	}
	return w.classifier.IsEligible(filepath.ToSlash(rel))
}
