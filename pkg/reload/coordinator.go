// Package reload applies configuration changes to a settings.Store.
//
// The Coordinator is the only writer of the store. A reload loads the
// configured source, derives a new snapshot from the current one, publishes
// it and then notifies subscribers. A reload that fails for any reason leaves
// the published snapshot untouched (last known good) and is reported through
// the error handler; it is not retried until the next signal.
package reload

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wayneeseguin/autolog/internal/metrics"
	"github.com/wayneeseguin/autolog/pkg/config"
	"github.com/wayneeseguin/autolog/pkg/settings"
	"github.com/wayneeseguin/autolog/pkg/watch"
)

// Event describes a successfully applied reload.
type Event struct {
	Source   string
	Previous *settings.Snapshot
	Current  *settings.Snapshot
	Time     time.Time
}

// Stats reports reload activity.
type Stats struct {
	Reloads    uint64
	Failures   uint64
	LastReload time.Time
	LastError  error
}

// Options configures a Coordinator.
type Options struct {
	// ErrorHandler receives load, parse and subscriber failures.
	ErrorHandler func(error)
	// Metrics, when set, counts reloads and failures.
	Metrics *metrics.Collector
}

// Coordinator serialises every write to a settings.Store.
type Coordinator struct {
	store *settings.Store
	opts  Options

	srcMu  sync.RWMutex
	source config.Source

	// held for the whole load-apply-publish sequence
	reloadMu sync.Mutex

	subsMu sync.RWMutex
	subs   map[uint64]func(Event)
	nextID uint64
	closed bool
	notify sync.WaitGroup

	reloads    atomic.Uint64
	failures   atomic.Uint64
	statsMu    sync.Mutex
	lastReload time.Time
	lastErr    error
}

// NewCoordinator creates a coordinator for store. source may be nil and set later.
func NewCoordinator(store *settings.Store, source config.Source, opts Options) *Coordinator {
	return &Coordinator{
		store:  store,
		source: source,
		opts:   opts,
		subs:   make(map[uint64]func(Event)),
	}
}

// SetSource replaces the source used by OnSignal.
func (c *Coordinator) SetSource(source config.Source) {
	c.srcMu.Lock()
	c.source = source
	c.srcMu.Unlock()
}

// Source returns the configured source.
func (c *Coordinator) Source() config.Source {
	c.srcMu.RLock()
	defer c.srcMu.RUnlock()
	return c.source
}

// OnSignal reloads from the configured source.
func (c *Coordinator) OnSignal(ctx context.Context) error {
	src := c.Source()
	if src == nil {
		err := config.NewParseError("", "No configuration source", nil)
		c.fail(err)
		return err
	}
	return c.Apply(ctx, src)
}

// Apply loads src and publishes the result on top of the current snapshot.
// On failure the published snapshot is unchanged and the error is returned
// after being reported.
func (c *Coordinator) Apply(ctx context.Context, src config.Source) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	cfg, err := src.Load(ctx)
	if err != nil {
		c.fail(err)
		return err
	}

	var (
		prev, next *settings.Snapshot
		applyErr   error
	)
	c.store.Update(func(cur *settings.Snapshot) *settings.Snapshot {
		prev = cur
		next, applyErr = config.ApplyToSnapshot(cur, cfg, src.Name())
		if applyErr != nil {
			return nil
		}
		return next
	})
	if applyErr != nil {
		c.fail(applyErr)
		return applyErr
	}

	now := time.Now()
	c.reloads.Add(1)
	c.statsMu.Lock()
	c.lastReload = now
	c.statsMu.Unlock()
	if c.opts.Metrics != nil {
		c.opts.Metrics.TrackReload()
	}

	c.publish(Event{Source: src.Name(), Previous: prev, Current: next, Time: now})
	return nil
}

// Run reloads once per event until events is closed or ctx is done. A
// reload already started when ctx is cancelled runs to completion.
func (c *Coordinator) Run(ctx context.Context, events <-chan watch.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			// errors are already reported
			_ = c.OnSignal(context.WithoutCancel(ctx))
		}
	}
}

// Update applies a manual change under the same lock as reloads. Subscribers
// are not notified.
func (c *Coordinator) Update(fn func(*settings.Snapshot) *settings.Snapshot) *settings.Snapshot {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()
	return c.store.Update(fn)
}

// Subscribe registers fn for reload events and returns a function that
// removes it. Each subscriber runs in its own goroutine after the new
// snapshot is published; a panicking subscriber is reported and does not
// affect the others.
func (c *Coordinator) Subscribe(fn func(Event)) func() {
	c.subsMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, id)
			c.subsMu.Unlock()
		})
	}
}

// Wait blocks until all dispatched subscriber calls have returned. It must
// not be called from a subscriber.
func (c *Coordinator) Wait() {
	c.notify.Wait()
}

// Close stops dispatching events to subscribers. Calls already running are
// left to finish on their own, so Close is safe to call from a subscriber.
// Reloads and updates keep working.
func (c *Coordinator) Close() {
	c.subsMu.Lock()
	c.closed = true
	c.subsMu.Unlock()
}

// Stats returns reload counters and the most recent failure.
func (c *Coordinator) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return Stats{
		Reloads:    c.reloads.Load(),
		Failures:   c.failures.Load(),
		LastReload: c.lastReload,
		LastError:  c.lastErr,
	}
}

func (c *Coordinator) publish(ev Event) {
	c.subsMu.RLock()
	if c.closed {
		c.subsMu.RUnlock()
		return
	}
	subs := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subsMu.RUnlock()

	for _, fn := range subs {
		c.notify.Add(1)
		go func(fn func(Event)) {
			defer c.notify.Done()
			defer func() {
				if r := recover(); r != nil {
					c.report(fmt.Errorf("config change subscriber panicked: %v", r))
				}
			}()
			fn(ev)
		}(fn)
	}
}

func (c *Coordinator) fail(err error) {
	c.failures.Add(1)
	c.statsMu.Lock()
	c.lastErr = err
	c.statsMu.Unlock()
	if c.opts.Metrics != nil {
		c.opts.Metrics.TrackReloadFailure()
	}
	c.report(err)
}

func (c *Coordinator) report(err error) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.TrackError("reload")
	}
	if c.opts.ErrorHandler != nil {
		c.opts.ErrorHandler(err)
	}
}
