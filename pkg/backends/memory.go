package backends

import (
	"strings"
	"sync"
	"time"

	"github.com/wayneeseguin/autolog/pkg/types"
)

// MemorySink keeps records in memory. It is meant for tests and for
// inspecting recent output from a running process.
type MemorySink struct {
	mu      sync.Mutex
	records []types.Record
	limit   int
}

// NewMemorySink keeps at most limit records, discarding the oldest. A limit
// of zero keeps everything.
func NewMemorySink(limit int) *MemorySink {
	return &MemorySink{limit: limit}
}

// Write implements types.Sink.
func (m *MemorySink) Write(level int, message string, timestamp time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, types.Record{Level: level, Message: message, Timestamp: timestamp})
	if m.limit > 0 && len(m.records) > m.limit {
		m.records = m.records[len(m.records)-m.limit:]
	}
}

// Records returns a copy of the stored records.
func (m *MemorySink) Records() []types.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Record, len(m.records))
	copy(out, m.records)
	return out
}

// Messages returns the stored messages in order.
func (m *MemorySink) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.records))
	for i, r := range m.records {
		out[i] = r.Message
	}
	return out
}

// Count returns how many stored messages contain substr.
func (m *MemorySink) Count(substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if strings.Contains(r.Message, substr) {
			n++
		}
	}
	return n
}

// Len returns the number of stored records.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Reset discards all records.
func (m *MemorySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
}
