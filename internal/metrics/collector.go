package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector counts what the logger does. All methods are safe for concurrent use.
type Collector struct {
	// Record counts by level
	messagesByLevel sync.Map // map[int]*atomic.Uint64
	messagesDropped uint64

	// Call instrumentation
	scopesOpened  uint64
	scopesClosed  uint64
	scopeFailures uint64
	escalations   uint64

	// Reloads
	reloads        uint64
	reloadFailures uint64
	lastReload     atomic.Int64 // unix nanoseconds

	// Error metrics
	errorCount     uint64
	errorsBySource sync.Map // map[string]*atomic.Uint64

	// Sink write latency
	writeCount     uint64
	totalWriteTime int64 // nanoseconds
	maxWriteTime   int64 // nanoseconds
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Metrics is a point-in-time copy of the collector.
type Metrics struct {
	MessagesLogged  map[int]uint64 `json:"messages_logged"`
	MessagesDropped uint64         `json:"messages_dropped"`

	ScopesOpened  uint64 `json:"scopes_opened"`
	ScopesClosed  uint64 `json:"scopes_closed"`
	ScopeFailures uint64 `json:"scope_failures"`
	Escalations   uint64 `json:"escalations"`

	Reloads        uint64    `json:"reloads"`
	ReloadFailures uint64    `json:"reload_failures"`
	LastReload     time.Time `json:"last_reload"`

	ErrorCount     uint64            `json:"error_count"`
	ErrorsBySource map[string]uint64 `json:"errors_by_source"`

	AverageWriteTime time.Duration `json:"average_write_time"`
	MaxWriteTime     time.Duration `json:"max_write_time"`

	SinkCount int `json:"sink_count"`
}

// GetMetrics returns a snapshot of all counters.
func (c *Collector) GetMetrics(sinkCount int) Metrics {
	m := Metrics{
		MessagesLogged:  make(map[int]uint64),
		MessagesDropped: atomic.LoadUint64(&c.messagesDropped),
		ScopesOpened:    atomic.LoadUint64(&c.scopesOpened),
		ScopesClosed:    atomic.LoadUint64(&c.scopesClosed),
		ScopeFailures:   atomic.LoadUint64(&c.scopeFailures),
		Escalations:     atomic.LoadUint64(&c.escalations),
		Reloads:         atomic.LoadUint64(&c.reloads),
		ReloadFailures:  atomic.LoadUint64(&c.reloadFailures),
		ErrorCount:      atomic.LoadUint64(&c.errorCount),
		ErrorsBySource:  make(map[string]uint64),
		SinkCount:       sinkCount,
	}
	if ns := c.lastReload.Load(); ns != 0 {
		m.LastReload = time.Unix(0, ns)
	}

	c.messagesByLevel.Range(func(key, value interface{}) bool {
		if count := value.(*atomic.Uint64).Load(); count > 0 {
			m.MessagesLogged[key.(int)] = count
		}
		return true
	})

	c.errorsBySource.Range(func(key, value interface{}) bool {
		if count := value.(*atomic.Uint64).Load(); count > 0 {
			m.ErrorsBySource[key.(string)] = count
		}
		return true
	})

	writeCount := atomic.LoadUint64(&c.writeCount)
	if writeCount > 0 {
		m.AverageWriteTime = time.Duration(atomic.LoadInt64(&c.totalWriteTime)) / time.Duration(writeCount)
	}
	m.MaxWriteTime = time.Duration(atomic.LoadInt64(&c.maxWriteTime))

	return m
}

// ResetMetrics resets all counters.
func (c *Collector) ResetMetrics() {
	c.messagesByLevel.Range(func(_, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})
	c.errorsBySource.Range(func(_, value interface{}) bool {
		value.(*atomic.Uint64).Store(0)
		return true
	})

	atomic.StoreUint64(&c.messagesDropped, 0)
	atomic.StoreUint64(&c.scopesOpened, 0)
	atomic.StoreUint64(&c.scopesClosed, 0)
	atomic.StoreUint64(&c.scopeFailures, 0)
	atomic.StoreUint64(&c.escalations, 0)
	atomic.StoreUint64(&c.reloads, 0)
	atomic.StoreUint64(&c.reloadFailures, 0)
	c.lastReload.Store(0)
	atomic.StoreUint64(&c.errorCount, 0)
	atomic.StoreUint64(&c.writeCount, 0)
	atomic.StoreInt64(&c.totalWriteTime, 0)
	atomic.StoreInt64(&c.maxWriteTime, 0)
}

// TrackMessageLogged increments the record counter for a level.
func (c *Collector) TrackMessageLogged(level int) {
	val, _ := c.messagesByLevel.LoadOrStore(level, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)
}

// TrackMessageDropped counts a record that a sink could not accept.
func (c *Collector) TrackMessageDropped() {
	atomic.AddUint64(&c.messagesDropped, 1)
}

// TrackScopeOpened counts a call scope entry.
func (c *Collector) TrackScopeOpened() {
	atomic.AddUint64(&c.scopesOpened, 1)
}

// TrackScopeClosed counts a call scope exit.
func (c *Collector) TrackScopeClosed() {
	atomic.AddUint64(&c.scopesClosed, 1)
}

// TrackScopeFailure counts a failure logged from a call scope.
func (c *Collector) TrackScopeFailure() {
	atomic.AddUint64(&c.scopeFailures, 1)
}

// TrackEscalation counts a slow data-access exit written at Warn.
func (c *Collector) TrackEscalation() {
	atomic.AddUint64(&c.escalations, 1)
}

// TrackReload counts a successfully applied configuration.
func (c *Collector) TrackReload() {
	atomic.AddUint64(&c.reloads, 1)
	c.lastReload.Store(time.Now().UnixNano())
}

// TrackReloadFailure counts a rejected configuration.
func (c *Collector) TrackReloadFailure() {
	atomic.AddUint64(&c.reloadFailures, 1)
}

// TrackWrite records sink write latency.
func (c *Collector) TrackWrite(duration time.Duration) {
	atomic.AddUint64(&c.writeCount, 1)
	atomic.AddInt64(&c.totalWriteTime, int64(duration))

	for {
		oldMax := atomic.LoadInt64(&c.maxWriteTime)
		if int64(duration) <= oldMax {
			break
		}
		if atomic.CompareAndSwapInt64(&c.maxWriteTime, oldMax, int64(duration)) {
			break
		}
	}
}

// TrackError increments the error counter and tracks by source.
func (c *Collector) TrackError(source string) {
	atomic.AddUint64(&c.errorCount, 1)

	val, _ := c.errorsBySource.LoadOrStore(source, &atomic.Uint64{})
	val.(*atomic.Uint64).Add(1)
}

// GetMessageCount returns the number of records logged at a level.
func (c *Collector) GetMessageCount(level int) uint64 {
	if val, ok := c.messagesByLevel.Load(level); ok {
		return val.(*atomic.Uint64).Load()
	}
	return 0
}

// GetErrorCount returns the total error count.
func (c *Collector) GetErrorCount() uint64 {
	return atomic.LoadUint64(&c.errorCount)
}

// GetErrorCountBySource returns the error count for a specific source.
func (c *Collector) GetErrorCountBySource(source string) uint64 {
	if val, ok := c.errorsBySource.Load(source); ok {
		return val.(*atomic.Uint64).Load()
	}
	return 0
}
