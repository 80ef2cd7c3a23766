package writer

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrWriterClosed is returned when attempting to write to a closed writer.
var ErrWriterClosed = errors.New("writer is closed")

// BlockWriter re-blocks a stream of arbitrarily sized writes into writes of
// exactly BlockSize bytes on the underlying writer. Only the final flush
// performed by Close may be shorter.
//
// A BlockWriter is driven by a single goroutine. Stats may be called
// concurrently.
type BlockWriter interface {
	// Write accepts data of any length. Full blocks are written through
	// immediately and the remainder is buffered.
	Write(data []byte) error

	// Close flushes the buffered partial block, if any, and closes the
	// writer. The final flush happens exactly once; later calls are no-ops.
	Close() error

	// Abort closes the writer without flushing and returns the number of
	// buffered bytes that were dropped.
	Abort() int

	// Stats returns statistics about the writer.
	Stats() Stats

	// IsClosed returns true if the writer is closed.
	IsClosed() bool

	// Buffered returns the number of bytes waiting for a full block.
	Buffered() int

	// BlockSize returns the configured block size.
	BlockSize() int
}

// Stats holds statistics about block writer activity.
type Stats struct {
	// BytesWritten is the total number of bytes written to the underlying writer.
	BytesWritten int64

	// WriteCount is the number of Write calls accepted.
	WriteCount int64

	// FlushCount is the number of flushes, including the final one.
	FlushCount int64

	// ErrorCount is the number of failed underlying writes.
	ErrorCount int64

	// TotalFlushTime is the time spent in the underlying writer.
	TotalFlushTime time.Duration

	// LastFlushTime is the timestamp of the last flush.
	LastFlushTime time.Time
}

// Config holds configuration options for BlockWriter.
type Config struct {
	// BlockSize is the size of every write to the underlying writer.
	// Default: 64KB
	BlockSize int

	// OnFlush is called after each flush, including an empty final flush.
	OnFlush func(bytesWritten int, duration time.Duration)

	// OnError is called when the underlying writer fails.
	OnError func(error)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		BlockSize: 64 * 1024,
	}
}

type blockWriter struct {
	underlying io.Writer
	config     Config

	buffer []byte
	closed bool

	stats   Stats
	statsMu sync.RWMutex
}

// New creates a BlockWriter with the default configuration.
func New(w io.Writer) BlockWriter {
	return NewWithConfig(w, DefaultConfig())
}

// NewWithConfig creates a BlockWriter with the specified configuration.
func NewWithConfig(w io.Writer, config Config) BlockWriter {
	if config.BlockSize <= 0 {
		config.BlockSize = DefaultConfig().BlockSize
	}
	return &blockWriter{
		underlying: w,
		config:     config,
		buffer:     make([]byte, 0, config.BlockSize),
	}
}

func (bw *blockWriter) Write(data []byte) error {
	if bw.closed {
		return ErrWriterClosed
	}
	bw.updateStats(func(s *Stats) {
		s.WriteCount++
	})

	size := bw.config.BlockSize
	space := size - len(bw.buffer)
	if len(data) < space {
		bw.buffer = append(bw.buffer, data...)
		return nil
	}

	// complete the pending block
	bw.buffer = append(bw.buffer, data[:space]...)
	data = data[space:]
	if err := bw.flush(bw.buffer); err != nil {
		return err
	}
	bw.buffer = bw.buffer[:0]

	for len(data) >= size {
		if err := bw.flush(data[:size]); err != nil {
			return err
		}
		data = data[size:]
	}

	bw.buffer = append(bw.buffer, data...)
	return nil
}

func (bw *blockWriter) Close() error {
	if bw.closed {
		return nil
	}
	bw.closed = true

	err := bw.flush(bw.buffer)
	bw.buffer = nil
	return err
}

func (bw *blockWriter) Abort() int {
	dropped := len(bw.buffer)
	bw.closed = true
	bw.buffer = nil
	return dropped
}

func (bw *blockWriter) Stats() Stats {
	bw.statsMu.RLock()
	defer bw.statsMu.RUnlock()
	return bw.stats
}

func (bw *blockWriter) IsClosed() bool {
	return bw.closed
}

func (bw *blockWriter) Buffered() int {
	return len(bw.buffer)
}

func (bw *blockWriter) BlockSize() int {
	return bw.config.BlockSize
}

// flush writes data to the underlying writer. An empty flush only counts.
func (bw *blockWriter) flush(data []byte) error {
	startTime := time.Now()

	var (
		n   int
		err error
	)
	if len(data) > 0 {
		n, err = bw.underlying.Write(data)
		if err == nil && n < len(data) {
			err = io.ErrShortWrite
		}
	}
	duration := time.Since(startTime)

	bw.updateStats(func(s *Stats) {
		s.FlushCount++
		s.BytesWritten += int64(n)
		s.TotalFlushTime += duration
		s.LastFlushTime = time.Now()
		if err != nil {
			s.ErrorCount++
		}
	})

	if bw.config.OnFlush != nil {
		bw.config.OnFlush(n, duration)
	}

	if err != nil {
		err = fmt.Errorf("flush %d bytes: %w", len(data), err)
		if bw.config.OnError != nil {
			bw.config.OnError(err)
		}
	}
	return err
}

func (bw *blockWriter) updateStats(updater func(*Stats)) {
	bw.statsMu.Lock()
	defer bw.statsMu.Unlock()
	updater(&bw.stats)
}
