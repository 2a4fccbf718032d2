package backends

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wayneeseguin/autolog/pkg/types"
)

// DefaultAsyncBufferSize is the queue length used when NewAsync is given zero.
const DefaultAsyncBufferSize = 1000

type asyncItem struct {
	rec  types.Record
	done chan struct{} // set for flush markers
}

// Async decouples a slow sink from the logging goroutine. Records are queued
// on a bounded channel and written by a single worker; when the queue is full
// the record is dropped and counted rather than blocking the caller.
type Async struct {
	next   types.Sink
	queue  chan asyncItem
	onDrop func()

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	wg      sync.WaitGroup
}

// NewAsync starts a worker writing to next. onDrop, if set, is called for
// each dropped record, including records lost to a panic in next.
func NewAsync(next types.Sink, size int, onDrop func()) *Async {
	if size <= 0 {
		size = DefaultAsyncBufferSize
	}
	a := &Async{
		next:   next,
		queue:  make(chan asyncItem, size),
		onDrop: onDrop,
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *Async) run() {
	defer a.wg.Done()
	for item := range a.queue {
		if item.done != nil {
			close(item.done)
			continue
		}
		a.write(item.rec)
	}
}

// write hands one record to the wrapped sink. A panic there counts the
// record as dropped and keeps the worker running.
func (a *Async) write(rec types.Record) {
	defer func() {
		if r := recover(); r != nil {
			a.drop()
		}
	}()
	a.next.Write(rec.Level, rec.Message, rec.Timestamp)
}

// Write implements types.Sink. It never blocks.
func (a *Async) Write(level int, message string, timestamp time.Time) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		a.drop()
		return
	}
	select {
	case a.queue <- asyncItem{rec: types.Record{Level: level, Message: message, Timestamp: timestamp}}:
	default:
		a.drop()
	}
}

func (a *Async) drop() {
	a.dropped.Add(1)
	if a.onDrop != nil {
		a.onDrop()
	}
}

// Dropped returns the number of records discarded because the queue was full,
// the sink was closed or the wrapped sink panicked.
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Flush waits until everything queued before the call has been written, then
// flushes the wrapped sink.
func (a *Async) Flush() error {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return nil
	}
	done := make(chan struct{})
	a.queue <- asyncItem{done: done}
	a.mu.RUnlock()

	<-done
	if f, ok := a.next.(types.Flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close drains the queue, stops the worker and closes the wrapped sink if it
// implements io.Closer.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	a.wg.Wait()

	if c, ok := a.next.(io.Closer); ok {
		return c.Close()
	}
	if f, ok := a.next.(types.Flusher); ok {
		return f.Flush()
	}
	return nil
}
