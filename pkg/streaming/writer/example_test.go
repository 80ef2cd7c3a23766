package writer

import (
	"bytes"
	"fmt"
	"time"
)

// Example demonstrates re-blocking uneven writes.
func Example() {
	var buf bytes.Buffer

	w := NewWithConfig(&buf, Config{
		BlockSize: 4,
		OnFlush: func(n int, _ time.Duration) {
			fmt.Println("flushed", n)
		},
	})

	_ = w.Write([]byte("ab"))
	_ = w.Write([]byte("cdefghi"))
	_ = w.Close()

	fmt.Println(buf.String())
	// Output:
	// flushed 4
	// flushed 4
	// flushed 1
	// abcdefghi
}
