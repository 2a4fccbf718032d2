package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/wayneeseguin/autolog/internal/testing"
)

type fakeSource struct {
	closed atomic.Bool
}

func (f *fakeSource) Close() error {
	f.closed.Store(true)
	return nil
}

// fakeFactory records the notify func of the most recent source so tests
// can inject raw changes.
type fakeFactory struct {
	mu       sync.Mutex
	notify   func()
	sources  []*fakeSource
	failures int
}

func (f *fakeFactory) create(path string, opts Options, notify func(), report func(error)) (source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("no such file")
	}
	src := &fakeSource{}
	f.notify = notify
	f.sources = append(f.sources, src)
	return src, nil
}

func (f *fakeFactory) change() {
	f.mu.Lock()
	notify := f.notify
	f.mu.Unlock()
	notify()
}

func (f *fakeFactory) ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notify != nil
}

func newTestWatcher(factory *fakeFactory, onErr func(error)) *Watcher {
	w := New(Options{
		Quiescence:   50 * time.Millisecond,
		RetryInitial: 10 * time.Millisecond,
		RetryMax:     20 * time.Millisecond,
		ErrorHandler: onErr,
	})
	w.newSource = factory.create
	return w
}

func receive(t *testing.T, events <-chan Event, timeout time.Duration) (Event, bool) {
	t.Helper()
	select {
	case ev, ok := <-events:
		return ev, ok
	case <-time.After(timeout):
		return Event{}, false
	}
}

func TestBurstCoalescesToOneEvent(t *testing.T) {
	factory := &fakeFactory{}
	w := newTestWatcher(factory, nil)

	events, err := w.Start(context.Background(), "autolog.yaml")
	require.NoError(t, err)
	defer w.Stop()

	for i := 0; i < 5; i++ {
		factory.change()
		time.Sleep(5 * time.Millisecond)
	}

	ev, ok := receive(t, events, time.Second)
	require.True(t, ok, "expected one event")
	assert.Equal(t, "autolog.yaml", ev.Path)
	assert.Equal(t, 5, ev.Changes)

	_, ok = receive(t, events, 150*time.Millisecond)
	assert.False(t, ok, "burst must produce a single event")
}

func TestSeparatedChangesProduceSeparateEvents(t *testing.T) {
	factory := &fakeFactory{}
	w := newTestWatcher(factory, nil)

	events, err := w.Start(context.Background(), "autolog.yaml")
	require.NoError(t, err)
	defer w.Stop()

	factory.change()
	_, ok := receive(t, events, time.Second)
	require.True(t, ok)

	factory.change()
	_, ok = receive(t, events, time.Second)
	require.True(t, ok)
}

func TestStartTwiceFails(t *testing.T) {
	factory := &fakeFactory{}
	w := newTestWatcher(factory, nil)

	_, err := w.Start(context.Background(), "a.yaml")
	require.NoError(t, err)
	defer w.Stop()

	_, err = w.Start(context.Background(), "b.yaml")
	require.Error(t, err)
}

func TestStartRequiresPath(t *testing.T) {
	w := New(Options{})
	_, err := w.Start(context.Background(), "")
	require.Error(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	factory := &fakeFactory{}
	w := newTestWatcher(factory, nil)

	w.Stop()

	events, err := w.Start(context.Background(), "autolog.yaml")
	require.NoError(t, err)
	assert.True(t, w.Running())

	w.Stop()
	w.Stop()
	assert.False(t, w.Running())

	_, ok := <-events
	assert.False(t, ok, "channel should be closed")
	assert.True(t, factory.sources[0].closed.Load())
}

func TestNoEventAfterStop(t *testing.T) {
	factory := &fakeFactory{}
	w := newTestWatcher(factory, nil)

	events, err := w.Start(context.Background(), "autolog.yaml")
	require.NoError(t, err)

	factory.change()
	w.Stop()

	for range events {
		t.Fatal("pending change should be discarded on stop")
	}
}

func TestRestartAfterStop(t *testing.T) {
	factory := &fakeFactory{}
	w := newTestWatcher(factory, nil)

	_, err := w.Start(context.Background(), "autolog.yaml")
	require.NoError(t, err)
	w.Stop()

	events, err := w.Start(context.Background(), "autolog.yaml")
	require.NoError(t, err)
	defer w.Stop()

	factory.change()
	_, ok := receive(t, events, time.Second)
	assert.True(t, ok)
	assert.Len(t, factory.sources, 2)
}

func TestRetryUntilWatchable(t *testing.T) {
	factory := &fakeFactory{failures: 3}
	var reported atomic.Int32
	w := newTestWatcher(factory, func(err error) {
		reported.Add(1)
	})

	events, err := w.Start(context.Background(), "missing.yaml")
	require.NoError(t, err)
	defer w.Stop()

	// once the source opens, the watcher emits an event for the new file
	ev, ok := receive(t, events, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, "missing.yaml", ev.Path)
	assert.True(t, factory.ready())
	assert.GreaterOrEqual(t, reported.Load(), int32(3))
}

func TestStopDuringRetry(t *testing.T) {
	factory := &fakeFactory{failures: 1 << 30}
	w := newTestWatcher(factory, nil)

	_, err := w.Start(context.Background(), "missing.yaml")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked while retrying")
	}
}

func TestArgusWatcherDetectsChange(t *testing.T) {
	testhelpers.SkipIfUnit(t, "polls the filesystem")

	path := filepath.Join(t.TempDir(), "autolog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("LogLevel: info\n"), 0o644))

	w := New(Options{
		PollInterval: 100 * time.Millisecond,
		CacheTTL:     50 * time.Millisecond,
		Quiescence:   100 * time.Millisecond,
	})
	events, err := w.Start(context.Background(), path)
	require.NoError(t, err)
	defer w.Stop()

	// let argus take its baseline stat
	time.Sleep(300 * time.Millisecond)

	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.WriteFile(path, []byte("LogLevel: debug\nAutoLogSQLThreshold: 5\n"), 0o644))
	require.NoError(t, os.Chtimes(path, later, later))

	ev, ok := receive(t, events, 5*time.Second)
	require.True(t, ok, "expected change event")
	assert.Equal(t, path, ev.Path)
}
