// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when files in a directory change.
//
// Events are debounced: changes arriving within the debounce window are
// coalesced so the callback fires once with the full set of changed names.
// Only the top level of the directory is watched; dependency checkouts and
// build trees below it never trigger a run.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when Config.Debounce is not positive. Editors
// often write a temp file and rename it; the window absorbs both events.
const DefaultDebounce = 300 * time.Millisecond

// defaultIgnores are names that never trigger a callback. The lock file and
// staging directories are written by the provisioning run itself.
var defaultIgnores = []string{
	"*.lock.toml",
	"*.lock.toml.tmp",
	".*.extdeps-staging-*",
	"*.swp",
	"*.swo",
	"*~",
	".DS_Store",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dir is the directory to watch. Empty means the working directory.
		Dir string

		// Patterns are doublestar globs matched against file names in Dir.
		// An empty slice matches every name that is not ignored.
		Patterns []string

		// Ignore are extra globs merged with the built-in ignores.
		Ignore []string

		// Debounce is the quiet period after the last event before OnChange fires.
		Debounce time.Duration

		// OnChange receives the sorted, deduplicated names that changed.
		OnChange func(ctx context.Context, changed []string) error

		// Stderr receives callback and watcher errors. nil means os.Stderr.
		Stderr io.Writer
	}

	// Watcher fires a debounced callback when matching files change.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		stderr   io.Writer
		debounce time.Duration
		dir      string
		started  atomic.Bool
	}
)

// New validates cfg and starts watching cfg.Dir.
func New(cfg Config) (*Watcher, error) {
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(absDir); err != nil {
		fsw.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("watch: add directory %q: %w", absDir, err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		stderr:   cfg.Stderr,
		debounce: cfg.Debounce,
		dir:      absDir,
	}
	if w.stderr == nil {
		w.stderr = os.Stderr
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	return w, nil
}

// Run blocks until ctx is cancelled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks. A
// callback that is still running when the next one is due is not started
// twice; the pending changes are retried after another debounce period.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				fmt.Fprintf(w.stderr, "watch: %v\n", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			fmt.Fprintf(w.stderr, "watch: close fsnotify: %v\n", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(evt.Name)
			if !w.Matches(name) {
				continue
			}

			mu.Lock()
			pending[name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			// isFatalFsnotifyError is platform-specific (see watcher_fatal_*.go).
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: fsnotify error: %v\n", err)
		}
	}
}

// Matches reports whether a change to name would trigger the callback.
func (w *Watcher) Matches(name string) bool {
	for _, pat := range w.ignores {
		if ok, _ := doublestar.Match(pat, name); ok {
			return false
		}
	}
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	for _, pat := range w.cfg.Patterns {
		if ok, _ := doublestar.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// Dir returns the absolute watched directory.
func (w *Watcher) Dir() string { return w.dir }

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if pat == "" || !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q", label, pat)
		}
	}
	return nil
}
