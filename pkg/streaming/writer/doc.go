/*
Package writer provides block-aligned buffered writing.

BlockWriter accepts writes of any size and hands the underlying writer
blocks of exactly the configured size. Whatever is left over when the
stream ends goes out in one final, possibly short, flush on Close.

# Quick Start

	file, _ := os.Create("output.bin")
	w := writer.NewWithConfig(file, writer.Config{BlockSize: 4096})

	w.Write(chunk)
	w.Close() // final partial block

# Re-blocking

With a block size of 4, a write of 2 bytes followed by a write of 6 bytes
produces two 4-byte writes on the underlying writer: the first completes
the pending block, the second is written through directly. A remainder
shorter than a block stays buffered until the next Write or Close.

# Monitoring

	config := writer.Config{
		BlockSize: 4096,
		OnFlush: func(bytes int, duration time.Duration) {
			log.Printf("Flushed %d bytes in %v", bytes, duration)
		},
		OnError: func(err error) {
			log.Printf("Write error: %v", err)
		},
	}

Stats reports bytes written, flushes (the final one included, even when it
had nothing to write) and errors.

# Failure

Write errors are returned as is and never retried. When the producing side
fails, call Abort instead of Close: the buffered tail is dropped and the
output keeps only whole blocks.

# Thread Safety

Write, Close and Abort must be called from one goroutine. Stats is safe
for concurrent use.
*/
package writer
