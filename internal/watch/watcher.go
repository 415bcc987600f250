// Package watch re-runs page generation when the input product file changes,
// with debouncing, and optionally on a fixed interval.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
)

// Watcher observes one input file and invokes the regenerate callback after
// changes settle. An optional interval triggers periodic regeneration even
// without file changes.
type Watcher struct {
	input      string
	debounce   time.Duration
	interval   time.Duration
	regenerate func(ctx context.Context, reason string)

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for the input file. Debounce must be positive;
// interval of 0 disables periodic regeneration.
func New(input string, debounce, interval time.Duration, regenerate func(ctx context.Context, reason string)) (*Watcher, error) {
	if regenerate == nil {
		return nil, fmt.Errorf("regenerate callback is required")
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		input:      input,
		debounce:   debounce,
		interval:   interval,
		regenerate: regenerate,
	}, nil
}

// Run blocks until ctx is done, dispatching regeneration on file changes and
// on the optional schedule.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	// Watch the directory: editors replace files on save, which drops the
	// watch on the file itself.
	dir := filepath.Dir(w.input)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	slog.Info("Watching input file", "file", w.input, "debounce", w.debounce)

	var scheduler gocron.Scheduler
	if w.interval > 0 {
		scheduler, err = gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		// Singleton mode: a tick that lands while a regeneration is still
		// running is rescheduled, never stacked.
		_, err = scheduler.NewJob(
			gocron.DurationJob(w.interval),
			gocron.NewTask(func() { w.regenerate(ctx, "interval") }),
			gocron.WithName("periodic-regenerate"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("schedule periodic regeneration: %w", err)
		}
		scheduler.Start()
		defer func() { _ = scheduler.Shutdown() }()
		slog.Info("Periodic regeneration enabled", "interval", w.interval)
	}

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.matches(event) {
				continue
			}
			slog.Debug("Input change detected", "op", event.Op.String(), "file", event.Name)
			w.schedule(ctx)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) matches(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.input) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename)
}

// schedule arms (or re-arms) the debounce timer.
func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		w.regenerate(ctx, "file_change")
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
