// SPDX-License-Identifier: MPL-2.0

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
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is unset.
const DefaultDebounce = 300 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

// defaultIgnores are never watched.
var defaultIgnores = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
}

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir is the root of the watched tree; empty means the current
		// directory.
		BaseDir string
		// Patterns are doublestar globs relative to BaseDir, e.g. "src/**/*.go".
		// Empty matches every file that is not ignored.
		Patterns []string
		// Ignore adds to the built-in ignore patterns.
		Ignore []string
		// Always lists files that trigger a run regardless of Patterns,
		// typically the recipe file itself.
		Always []string
		// Debounce is the quiet period after the last event before OnChange
		// fires.
		Debounce time.Duration
		// Restart cancels a run in progress when new changes arrive.
		Restart bool
		// OnChange receives the sorted changed paths, relative to BaseDir.
		OnChange func(ctx context.Context, changed []string) error
		// Logger receives watcher diagnostics; nil disables them.
		Logger *log.Logger
	}

	// Watcher monitors a directory tree. Run may be called once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		always   map[string]struct{}
		debounce time.Duration
		baseDir  string
		logger   *log.Logger
		started  atomic.Bool
	}
)

// New validates the patterns and registers every non-ignored directory
// under BaseDir, plus the directories holding the Always files.
func New(cfg Config) (*Watcher, error) {
	if cfg.OnChange == nil {
		return nil, errors.New("watch: OnChange is required")
	}
	if err := validatePatterns(cfg.Patterns, "watch"); err != nil {
		return nil, err
	}
	if err := validatePatterns(cfg.Ignore, "ignore"); err != nil {
		return nil, err
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	always := make(map[string]struct{}, len(cfg.Always))
	for _, p := range cfg.Always {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %q: %w", p, err)
		}
		always[abs] = struct{}{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		always:   always,
		debounce: cmpOr(cfg.Debounce, DefaultDebounce),
		baseDir:  absBase,
		logger:   cfg.Logger,
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}

	if err := w.addDirectories(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done. It returns nil on cancellation and
// an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("watch: close fsnotify", "error", err)
		}
	}()

	var (
		pending   = make(map[string]struct{})
		timer     *time.Timer
		timerC    <-chan time.Time
		done      chan error
		cancelRun context.CancelFunc
	)

	start := func() {
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		w.logger.Debug("watch: change detected", "files", changed)

		runCtx, cancel := context.WithCancel(ctx)
		cancelRun = cancel
		done = make(chan error, 1)
		go func() { done <- w.cfg.OnChange(runCtx, changed) }()
	}
	stopRun := func() {
		if cancelRun != nil {
			cancelRun()
			<-done
		}
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			stopRun()
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				stopRun()
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			rel, ok := w.relevant(evt.Name)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerC = timer.C
			if done != nil && w.cfg.Restart {
				cancelRun()
			}

		case <-timerC:
			timerC = nil
			// A batch that settles during a run starts when the run ends.
			if done == nil && len(pending) > 0 {
				start()
			}

		case err := <-done:
			cancelRun()
			done, cancelRun = nil, nil
			if err != nil && ctx.Err() == nil {
				w.logger.Debug("watch: run finished with error", "error", err)
			}
			if timerC == nil && len(pending) > 0 {
				start()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				stopRun()
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatal(err) {
				stopRun()
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("watch: fsnotify error", "error", err)
		}
	}
}

// relevant reports whether an event path should trigger a run and returns
// it relative to BaseDir.
func (w *Watcher) relevant(name string) (string, bool) {
	rel, err := filepath.Rel(w.baseDir, name)
	if err != nil {
		rel = name
	}
	if _, ok := w.always[name]; ok {
		return rel, true
	}
	if w.isIgnored(rel) {
		return "", false
	}
	return rel, w.matches(rel)
}

func (w *Watcher) addDirectories() error {
	err := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			w.logger.Warn("watch: skipping inaccessible path", "path", path, "error", walkErr)
			return nil //nolint:nilerr // inaccessible directories are skipped
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // unreachable for paths under baseDir
		}
		if rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk directory tree: %w", err)
	}

	for path := range w.always {
		dir := filepath.Dir(path)
		// Directories inside the tree are already watched.
		if rel, relErr := filepath.Rel(w.baseDir, dir); relErr == nil && filepath.IsLocal(rel) {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", dir, err)
		}
	}
	return nil
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil || w.isIgnored(rel) || w.isIgnored(rel+"/") {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("watch: add new directory", "path", path, "error", err)
	}
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) matches(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, normalized); err == nil && ok {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string, label string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid %s pattern %q: %w", label, pat, doublestar.ErrBadPattern)
		}
	}
	return nil
}

func cmpOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
