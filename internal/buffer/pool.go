// Package buffer pools the byte buffers used to render log lines.
package buffer

import (
	"bytes"
	"sync"
)

// DefaultCapacity fits a typical log line with its prefix.
const DefaultCapacity = 512

// maxPooled bounds the buffers kept for reuse. Larger ones are left to the GC.
const maxPooled = 32 * 1024

// Pool manages reusable byte buffers.
type Pool struct {
	pool     sync.Pool
	capacity int
}

// NewPool creates a pool of DefaultCapacity buffers.
func NewPool() *Pool {
	return NewPoolWithCapacity(DefaultCapacity)
}

// NewPoolWithCapacity creates a pool whose new buffers start at capacity bytes.
func NewPoolWithCapacity(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	p := &Pool{capacity: capacity}
	p.pool.New = func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, capacity))
	}
	return p
}

// Get returns an empty buffer. Return it with Put when done.
func (p *Pool) Get() *bytes.Buffer {
	buf, ok := p.pool.Get().(*bytes.Buffer)
	if !ok {
		return bytes.NewBuffer(make([]byte, 0, p.capacity))
	}
	buf.Reset()
	return buf
}

// Put returns buf to the pool.
func (p *Pool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > maxPooled {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}

// Bytes copies the buffer contents and returns buf to the pool.
func (p *Pool) Bytes(buf *bytes.Buffer) []byte {
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	p.Put(buf)
	return out
}

// String returns the buffer contents and returns buf to the pool.
func (p *Pool) String(buf *bytes.Buffer) string {
	s := buf.String()
	p.Put(buf)
	return s
}

var shared = NewPool()

// Get takes a buffer from the shared pool.
func Get() *bytes.Buffer { return shared.Get() }

// Put returns a buffer to the shared pool.
func Put(buf *bytes.Buffer) { shared.Put(buf) }
