package backends

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// publisher is the subset of *nats.Conn used by NATSBackend.
type publisher interface {
	Publish(subject string, data []byte) error
	Flush() error
	Close()
}

// NATSBackend publishes each entry as a message on a NATS subject.
//
// URI form:
//
//	nats://[user:pass@]host:port/subject?batch=100&flush_interval=100&async=true
//
// With async enabled (the default), entries are buffered and published in
// batches when the buffer is full or the flush interval elapses.
type NATSBackend struct {
	conn    publisher
	subject string
	options []nats.Option

	async         bool
	batchSize     int
	flushInterval time.Duration

	bufferMu   sync.Mutex
	buffer     [][]byte
	flushTimer *time.Timer
	closed     bool

	counters
}

// NewNATSBackend parses uri and connects.
func NewNATSBackend(uri string) (*NATSBackend, error) {
	return NewNATSBackendWithOptions(uri, true)
}

// NewNATSBackendWithOptions parses uri and connects only when connect is true.
func NewNATSBackendWithOptions(uri string, connect bool) (*NATSBackend, error) {
	parsedURL, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}
	if parsedURL.Scheme != "nats" {
		return nil, fmt.Errorf("invalid scheme: %s (expected 'nats')", parsedURL.Scheme)
	}

	backend := &NATSBackend{
		subject:       strings.TrimPrefix(parsedURL.Path, "/"),
		async:         true,
		batchSize:     100,
		flushInterval: 100 * time.Millisecond,
	}
	if backend.subject == "" {
		return nil, fmt.Errorf("missing subject in %q", uri)
	}

	query := parsedURL.Query()
	if asyncStr := query.Get("async"); asyncStr != "" {
		backend.async, _ = strconv.ParseBool(asyncStr)
	}
	if batchStr := query.Get("batch"); batchStr != "" {
		if batch, err := strconv.Atoi(batchStr); err == nil {
			backend.batchSize = batch
		}
	}
	if flushStr := query.Get("flush_interval"); flushStr != "" {
		if flush, err := strconv.Atoi(flushStr); err == nil {
			backend.flushInterval = time.Duration(flush) * time.Millisecond
		}
	}

	backend.options = []nats.Option{
		nats.Name("autolog-nats-backend"),
	}
	if s := query.Get("max_reconnect"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			backend.options = append(backend.options, nats.MaxReconnects(n))
		}
	}
	if s := query.Get("reconnect_wait"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			backend.options = append(backend.options, nats.ReconnectWait(time.Duration(n)*time.Second))
		}
	}
	if s := query.Get("tls"); s != "" {
		if tls, _ := strconv.ParseBool(s); tls {
			backend.options = append(backend.options, nats.Secure())
		}
	}
	if parsedURL.User != nil {
		password, _ := parsedURL.User.Password()
		backend.options = append(backend.options, nats.UserInfo(parsedURL.User.Username(), password))
	}

	if connect {
		if parsedURL.Host == "" {
			return nil, fmt.Errorf("missing host in %q", uri)
		}
		conn, err := nats.Connect("nats://"+parsedURL.Host, backend.options...)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		backend.attach(conn)
	}

	return backend, nil
}

// attach sets the connection and starts the flush timer when batching.
func (n *NATSBackend) attach(conn publisher) {
	n.conn = conn
	if n.async && n.batchSize > 0 {
		n.startFlushTimer()
	}
}

// Subject returns the subject entries are published on.
func (n *NATSBackend) Subject() string {
	return n.subject
}

// Write implements Backend.
func (n *NATSBackend) Write(entry []byte) (int, error) {
	var (
		written int
		err     error
	)
	if n.async && n.batchSize > 0 {
		written, err = n.bufferWrite(entry)
	} else {
		written, err = n.directWrite(entry)
	}
	n.track(written, err)
	return written, err
}

func (n *NATSBackend) bufferWrite(entry []byte) (int, error) {
	n.bufferMu.Lock()
	defer n.bufferMu.Unlock()

	if n.closed {
		return 0, fmt.Errorf("NATS backend is closed")
	}

	entryCopy := make([]byte, len(entry))
	copy(entryCopy, entry)
	n.buffer = append(n.buffer, entryCopy)

	if len(n.buffer) >= n.batchSize {
		if err := n.flushBufferLocked(); err != nil {
			return 0, err
		}
	}
	return len(entry), nil
}

func (n *NATSBackend) directWrite(entry []byte) (int, error) {
	if n.conn == nil {
		return 0, fmt.Errorf("NATS connection not established")
	}
	if err := n.conn.Publish(n.subject, entry); err != nil {
		return 0, fmt.Errorf("failed to publish: %w", err)
	}
	return len(entry), nil
}

// Flush publishes buffered entries and flushes the connection.
func (n *NATSBackend) Flush() error {
	n.bufferMu.Lock()
	defer n.bufferMu.Unlock()
	if len(n.buffer) > 0 {
		return n.flushBufferLocked()
	}
	if n.conn != nil {
		return n.conn.Flush()
	}
	return nil
}

// flushBufferLocked must be called with bufferMu held.
func (n *NATSBackend) flushBufferLocked() error {
	if len(n.buffer) == 0 {
		return nil
	}
	if n.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	for i, entry := range n.buffer {
		if err := n.conn.Publish(n.subject, entry); err != nil {
			n.buffer = n.buffer[i:]
			return fmt.Errorf("failed to publish buffered message: %w", err)
		}
	}
	n.buffer = n.buffer[:0]
	return n.conn.Flush()
}

func (n *NATSBackend) startFlushTimer() {
	n.bufferMu.Lock()
	defer n.bufferMu.Unlock()
	n.flushTimer = time.AfterFunc(n.flushInterval, n.onFlushTimer)
}

func (n *NATSBackend) onFlushTimer() {
	_ = n.Flush()

	n.bufferMu.Lock()
	defer n.bufferMu.Unlock()
	if !n.closed {
		n.flushTimer.Reset(n.flushInterval)
	}
}

// Close publishes what is buffered and closes the connection.
func (n *NATSBackend) Close() error {
	n.bufferMu.Lock()
	if n.closed {
		n.bufferMu.Unlock()
		return nil
	}
	n.closed = true
	if n.flushTimer != nil {
		n.flushTimer.Stop()
	}
	var err error
	if n.conn != nil {
		err = n.flushBufferLocked()
	}
	n.bufferMu.Unlock()

	if n.conn != nil {
		n.conn.Close()
	}
	return err
}

// Stats implements Backend.
func (n *NATSBackend) Stats() BackendStats {
	return n.stats("nats:" + n.subject)
}
