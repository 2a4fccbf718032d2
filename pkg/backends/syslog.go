package backends

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
)

// SyslogBackend writes entries to a syslog daemon as "<priority>tag: message".
type SyslogBackend struct {
	network  string
	address  string
	conn     net.Conn
	writer   *bufio.Writer
	priority int
	tag      string
	mu       sync.Mutex

	counters
}

// NewSyslogBackend connects to a syslog daemon. An empty address selects the
// first local syslog socket found.
func NewSyslogBackend(network, address string, priority int, tag string) (*SyslogBackend, error) {
	if address == "" {
		for _, path := range []string{"/dev/log", "/var/run/syslog", "/var/run/log"} {
			if _, err := os.Stat(path); err == nil {
				network = "unix"
				address = path
				break
			}
		}
		if address == "" {
			return nil, fmt.Errorf("no local syslog socket found")
		}
	}

	conn, err := net.Dial(network, address)
	if err != nil {
		return nil, fmt.Errorf("dial syslog: %w", err)
	}

	return &SyslogBackend{
		network:  network,
		address:  address,
		conn:     conn,
		writer:   bufio.NewWriter(conn),
		priority: priority,
		tag:      tag,
	}, nil
}

// Write buffers one syslog line.
func (sb *SyslogBackend) Write(entry []byte) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	message := fmt.Sprintf("<%d>%s: %s\n", sb.priority, sb.tag, strings.TrimSpace(string(entry)))
	n, err := sb.writer.WriteString(message)
	sb.track(n, err)
	return n, err
}

// Flush sends buffered lines.
func (sb *SyslogBackend) Flush() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.writer.Flush()
}

// Close flushes and closes the connection.
func (sb *SyslogBackend) Close() error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	var errs []error
	if err := sb.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if err := sb.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close conn: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// SetPriority sets the syslog priority
func (sb *SyslogBackend) SetPriority(priority int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.priority = priority
}

// SetTag sets the syslog tag
func (sb *SyslogBackend) SetTag(tag string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tag = tag
}

// Stats implements Backend.
func (sb *SyslogBackend) Stats() BackendStats {
	return sb.stats(fmt.Sprintf("syslog://%s/%s", sb.network, sb.address))
}
