// Package backends provides log sinks.
//
// Byte-oriented destinations (files, syslog, NATS subjects) implement Backend
// and are turned into a types.Sink with NewSink and a formatter. Sinks that
// already understand levels, such as zap and zerolog loggers, implement
// types.Sink directly.
package backends

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/wayneeseguin/autolog/pkg/formatters"
	"github.com/wayneeseguin/autolog/pkg/types"
)

// Backend interface for byte-oriented log destinations
type Backend interface {
	// Write writes a formatted entry
	Write(entry []byte) (int, error)

	// Flush ensures all buffered data is written
	Flush() error

	// Close flushes and releases the destination
	Close() error

	// Stats returns backend statistics
	Stats() BackendStats
}

// BackendStats represents statistics for a backend
type BackendStats struct {
	Path         string
	WriteCount   uint64
	BytesWritten uint64
	ErrorCount   uint64
	LastError    time.Time
}

// counters is embedded by backends to track BackendStats.
type counters struct {
	writes    atomic.Uint64
	bytes     atomic.Uint64
	errors    atomic.Uint64
	lastError atomic.Int64
}

func (c *counters) track(n int, err error) {
	if err != nil {
		c.errors.Add(1)
		c.lastError.Store(time.Now().UnixNano())
		return
	}
	c.writes.Add(1)
	c.bytes.Add(uint64(n))
}

func (c *counters) stats(path string) BackendStats {
	s := BackendStats{
		Path:         path,
		WriteCount:   c.writes.Load(),
		BytesWritten: c.bytes.Load(),
		ErrorCount:   c.errors.Load(),
	}
	if ns := c.lastError.Load(); ns != 0 {
		s.LastError = time.Unix(0, ns)
	}
	return s
}

// FormattedSink renders records with a formatter and writes them to a Backend.
type FormattedSink struct {
	backend   Backend
	formatter formatters.Formatter
	onError   func(error)

	closeOnce sync.Once
	closeErr  error
}

// NewSink adapts backend to types.Sink. A nil formatter selects the text
// formatter. onError, if set, receives format and write failures; sinks never
// fail the caller.
func NewSink(backend Backend, formatter formatters.Formatter, onError func(error)) *FormattedSink {
	if formatter == nil {
		formatter = formatters.NewTextFormatter()
	}
	return &FormattedSink{backend: backend, formatter: formatter, onError: onError}
}

// Write implements types.Sink.
func (s *FormattedSink) Write(level int, message string, timestamp time.Time) {
	data, err := s.formatter.Format(types.Record{Level: level, Message: message, Timestamp: timestamp})
	if err != nil {
		s.report(err)
		return
	}
	if _, err := s.backend.Write(data); err != nil {
		s.report(err)
	}
}

// Flush implements types.Flusher.
func (s *FormattedSink) Flush() error {
	return s.backend.Flush()
}

// Close closes the backend once.
func (s *FormattedSink) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.backend.Close()
	})
	return s.closeErr
}

// Backend returns the wrapped backend.
func (s *FormattedSink) Backend() Backend {
	return s.backend
}

func (s *FormattedSink) report(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
