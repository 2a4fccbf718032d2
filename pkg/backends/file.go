package backends

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// DefaultBufferSize for file operations
const DefaultBufferSize = 32 * 1024

// FileBackend appends entries to a file. Writes from several processes to
// the same file are serialised with an advisory lock, so each flushed entry
// lands intact.
type FileBackend struct {
	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	lock   *flock.Flock
	path   string
	size   int64
	closed bool

	counters
}

// NewFileBackend opens path for appending, creating it and its directory if needed.
func NewFileBackend(path string) (*FileBackend, error) {
	cleanPath := filepath.Clean(path)

	// #nosec G301 - log directories need to be accessible by other processes
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644) // #nosec G302 - log files need to be readable
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return &FileBackend{
		file:   file,
		writer: bufio.NewWriterSize(file, DefaultBufferSize),
		lock:   flock.New(cleanPath + ".lock"),
		path:   cleanPath,
		size:   info.Size(),
	}, nil
}

// Write buffers entry. The buffer is flushed under the file lock when it
// cannot hold the next entry.
func (fb *FileBackend) Write(entry []byte) (int, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.closed {
		err := fmt.Errorf("file backend %s is closed", fb.path)
		fb.track(0, err)
		return 0, err
	}

	if fb.writer.Available() < len(entry) && fb.writer.Buffered() > 0 {
		if err := fb.flushLocked(); err != nil {
			fb.track(0, err)
			return 0, err
		}
	}

	n, err := fb.writer.Write(entry)
	fb.track(n, err)
	if err != nil {
		return n, err
	}
	fb.size += int64(n)
	return n, nil
}

// Flush writes buffered entries to the file.
func (fb *FileBackend) Flush() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.closed {
		return nil
	}
	return fb.flushLocked()
}

func (fb *FileBackend) flushLocked() error {
	if fb.writer.Buffered() == 0 {
		return nil
	}
	if err := fb.lock.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() {
		_ = fb.lock.Unlock()
	}()
	return fb.writer.Flush()
}

// Sync flushes and fsyncs the file.
func (fb *FileBackend) Sync() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.closed {
		return nil
	}
	if err := fb.flushLocked(); err != nil {
		return err
	}
	return fb.file.Sync()
}

// Close flushes and closes the file. Further writes fail.
func (fb *FileBackend) Close() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.closed {
		return nil
	}
	fb.closed = true

	var errs []error
	if err := fb.flushLocked(); err != nil {
		errs = append(errs, fmt.Errorf("flush: %w", err))
	}
	if err := fb.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close file: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Size returns the file size including buffered bytes.
func (fb *FileBackend) Size() int64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.size
}

// Path returns the file path
func (fb *FileBackend) Path() string {
	return fb.path
}

// Stats implements Backend.
func (fb *FileBackend) Stats() BackendStats {
	return fb.stats(fb.path)
}
