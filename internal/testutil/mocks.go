package testutil

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"time"
)

// MockWriter is a test writer that can simulate various write conditions
// including delays, errors, and write counting.
type MockWriter struct {
	buf         *bytes.Buffer
	mu          sync.Mutex
	writeDelay  time.Duration
	errorOnNth  int
	writeCount  int
	shouldError bool
	err         error
}

// NewMockWriter creates a new MockWriter.
func NewMockWriter() *MockWriter {
	return &MockWriter{
		buf: &bytes.Buffer{},
	}
}

// Write implements io.Writer interface with configurable behavior.
func (mw *MockWriter) Write(p []byte) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.writeCount++

	if mw.writeDelay > 0 {
		time.Sleep(mw.writeDelay)
	}

	if mw.shouldError {
		return 0, mw.err
	}

	if mw.errorOnNth > 0 && mw.writeCount == mw.errorOnNth {
		return 0, errors.New("simulated error")
	}

	return mw.buf.Write(p)
}

// String returns the current buffer contents.
func (mw *MockWriter) String() string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.String()
}

// Len returns the current buffer length.
func (mw *MockWriter) Len() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.Len()
}

// WriteCount returns the number of Write calls.
func (mw *MockWriter) WriteCount() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.writeCount
}

// SetWriteDelay configures a delay for each write operation.
func (mw *MockWriter) SetWriteDelay(delay time.Duration) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.writeDelay = delay
}

// SetErrorOnNth configures the writer to error on the nth write.
func (mw *MockWriter) SetErrorOnNth(n int) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.errorOnNth = n
}

// SetAlwaysError configures the writer to always return the given error.
func (mw *MockWriter) SetAlwaysError(err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.shouldError = true
	mw.err = err
}

// Bytes returns a copy of the buffer contents.
func (mw *MockWriter) Bytes() []byte {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return append([]byte(nil), mw.buf.Bytes()...)
}

// Reset clears the buffer and resets counters.
func (mw *MockWriter) Reset() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.buf.Reset()
	mw.writeCount = 0
	mw.shouldError = false
	mw.errorOnNth = 0
	mw.writeDelay = 0
	mw.err = nil
}

// MockReader serves data in reads of at most ReadSize bytes and can fail
// after a number of reads. Close is recorded so tests can check that a
// stage released its input.
type MockReader struct {
	mu         sync.Mutex
	data       []byte
	readSize   int
	readCount  int
	errorOnNth int
	err        error
	closed     bool
}

// NewMockReader creates a reader over data.
func NewMockReader(data []byte) *MockReader {
	return &MockReader{data: data}
}

// Read implements io.Reader.
func (mr *MockReader) Read(p []byte) (int, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()

	mr.readCount++
	if mr.errorOnNth > 0 && mr.readCount >= mr.errorOnNth {
		return 0, mr.err
	}
	if len(mr.data) == 0 {
		return 0, io.EOF
	}

	n := len(p)
	if mr.readSize > 0 && n > mr.readSize {
		n = mr.readSize
	}
	n = copy(p[:n], mr.data)
	mr.data = mr.data[n:]
	return n, nil
}

// Close implements io.Closer.
func (mr *MockReader) Close() error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.closed = true
	return nil
}

// Closed reports whether Close was called.
func (mr *MockReader) Closed() bool {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return mr.closed
}

// SetReadSize caps the bytes returned by a single Read.
func (mr *MockReader) SetReadSize(n int) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.readSize = n
}

// SetErrorOnNth makes the nth and every later Read return err.
func (mr *MockReader) SetErrorOnNth(n int, err error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.errorOnNth = n
	mr.err = err
}
