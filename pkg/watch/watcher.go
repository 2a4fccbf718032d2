// Package watch observes a configuration file and emits one event per
// logical change.
//
// Raw change notifications come from an argus polling watcher. A single save
// in an editor often produces several of them (truncate, write, chmod,
// rename), so they pass through a coalescer that waits for a quiet period
// before emitting. If the file cannot be watched, the error is reported and
// the watcher keeps retrying with exponential backoff until it is stopped.
package watch

import (
	"context"
	"sync"
	"time"

	"github.com/agilira/argus"
	"github.com/cenkalti/backoff/v4"
)

// Event signals that the watched file changed.
type Event struct {
	Path string
	Time time.Time
	// Changes is the number of raw notifications folded into this event.
	Changes int
}

// Options configures a Watcher.
type Options struct {
	// PollInterval is how often argus stats the file.
	PollInterval time.Duration
	// CacheTTL bounds how long argus caches os.Stat results.
	CacheTTL time.Duration
	// Quiescence is the quiet period that ends a burst of changes.
	Quiescence time.Duration
	// RetryInitial and RetryMax bound the backoff used when the path cannot be watched.
	RetryInitial time.Duration
	RetryMax     time.Duration
	// ErrorHandler receives watch errors. Errors are never fatal.
	ErrorHandler func(error)
	// Audit is passed through to argus.
	Audit argus.AuditConfig
}

// DefaultOptions returns options suitable for configuration files that change
// rarely but should be picked up within a second.
func DefaultOptions() Options {
	return Options{
		PollInterval: 250 * time.Millisecond,
		CacheTTL:     100 * time.Millisecond,
		Quiescence:   100 * time.Millisecond,
		RetryInitial: 500 * time.Millisecond,
		RetryMax:     30 * time.Second,
	}
}

// source produces raw change notifications until closed.
type source interface {
	Close() error
}

type sourceFactory func(path string, opts Options, notify func(), report func(error)) (source, error)

// Watcher watches one path at a time. It may be started again after Stop.
type Watcher struct {
	opts      Options
	newSource sourceFactory

	mu      sync.Mutex
	running bool
	path    string
	src     source
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	co      *coalescer

	emitMu sync.Mutex
	events chan Event
	closed bool
}

// New creates a stopped watcher. Zero fields in opts take their defaults.
func New(opts Options) *Watcher {
	def := DefaultOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = def.CacheTTL
	}
	if opts.Quiescence <= 0 {
		opts.Quiescence = def.Quiescence
	}
	if opts.RetryInitial <= 0 {
		opts.RetryInitial = def.RetryInitial
	}
	if opts.RetryMax <= 0 {
		opts.RetryMax = def.RetryMax
	}
	return &Watcher{opts: opts, newSource: newArgusSource}
}

// Start begins watching path. The returned channel receives coalesced events
// and is closed by Stop. If path cannot be watched yet, the failure is
// reported through the error handler and retried in the background.
func (w *Watcher) Start(ctx context.Context, path string) (<-chan Event, error) {
	if path == "" {
		return nil, NewWatchError(path, "No path to watch", nil)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil, NewWatcherRunningError(w.path)
	}

	events := make(chan Event, 1)
	w.emitMu.Lock()
	w.events = events
	w.closed = false
	w.emitMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.path = path
	w.running = true
	w.co = newCoalescer(w.opts.Quiescence, func(n int) { w.emit(path, n) })

	co := w.co
	src, err := w.newSource(path, w.opts, co.trigger, w.report)
	if err == nil {
		w.src = src
		return events, nil
	}

	w.report(NewWatchError(path, "Cannot watch configuration file, retrying", err))
	w.wg.Add(1)
	go w.retry(ctx, path, co)
	return events, nil
}

// Stop stops watching and closes the event channel. It is safe to call more
// than once and before Start. An event already being delivered completes;
// no new event is emitted after Stop returns.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.cancel()
	w.co.stop()
	src := w.src
	w.src = nil
	w.mu.Unlock()

	// the retry goroutine may still hold a freshly opened source
	w.wg.Wait()

	if src != nil {
		if err := src.Close(); err != nil {
			w.report(NewWatchError(w.path, "Failed to stop file watcher", err))
		}
	}

	w.emitMu.Lock()
	if !w.closed {
		w.closed = true
		close(w.events)
	}
	w.emitMu.Unlock()
}

// Running reports whether the watcher has been started and not stopped.
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) retry(ctx context.Context, path string, co *coalescer) {
	defer w.wg.Done()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.opts.RetryInitial
	b.MaxInterval = w.opts.RetryMax
	b.MaxElapsedTime = 0

	var src source
	op := func() error {
		s, err := w.newSource(path, w.opts, co.trigger, w.report)
		if err != nil {
			return err
		}
		src = s
		return nil
	}
	notify := func(err error, next time.Duration) {
		w.report(NewWatchError(path, "Cannot watch configuration file, retrying", err).
			WithContext("retry_in", next.String()))
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return
	}

	w.mu.Lock()
	if ctx.Err() != nil {
		w.mu.Unlock()
		_ = src.Close()
		return
	}
	w.src = src
	w.mu.Unlock()

	// the file may have appeared while we were waiting
	co.trigger()
}

func (w *Watcher) emit(path string, changes int) {
	w.emitMu.Lock()
	defer w.emitMu.Unlock()

	if w.closed {
		return
	}
	select {
	case w.events <- Event{Path: path, Time: time.Now(), Changes: changes}:
	default:
		// an undelivered event is already queued and will pick up this change
	}
}

func (w *Watcher) report(err error) {
	if w.opts.ErrorHandler != nil && err != nil {
		w.opts.ErrorHandler(err)
	}
}

type argusSource struct {
	watcher *argus.Watcher
}

func newArgusSource(path string, opts Options, notify func(), report func(error)) (source, error) {
	watcher := argus.New(argus.Config{
		PollInterval:         opts.PollInterval,
		CacheTTL:             opts.CacheTTL,
		MaxWatchedFiles:      1,
		Audit:                opts.Audit,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, file string) {
			report(NewWatchError(file, "Configuration file watching error", err))
		},
	})

	err := watcher.Watch(path, func(event argus.ChangeEvent) {
		if event.IsDelete {
			report(NewWatchError(event.Path, "Configuration file was deleted, keeping last configuration", nil))
			return
		}
		notify()
	})
	if err != nil {
		return nil, err
	}
	if err := watcher.Start(); err != nil {
		return nil, err
	}
	return &argusSource{watcher: watcher}, nil
}

func (s *argusSource) Close() error {
	return s.watcher.Stop()
}
