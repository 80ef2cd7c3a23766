// Package bucket paces byte throughput with a token bucket.
//
// A Limiter holds up to Burst tokens and refills them at Rate tokens per
// second. Callers take one token per byte. A request larger than the
// bucket is granted by running the balance negative, so the next caller
// waits for the debt to be repaid.
//
//	lim, err := bucket.New(bucket.Config{Rate: 1 << 20})
//	if err != nil {
//		return err
//	}
//	for {
//		n, err := r.Read(buf)
//		if err := lim.WaitN(ctx, n); err != nil {
//			return err
//		}
//		...
//	}
package bucket

import (
	"sync"
	"time"

	"github.com/vnykmshr/chunkflow/pkg/common/errors"
)

// Clock provides the current time. It can be mocked for testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration options for creating a new Limiter.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate int

	// Burst is the maximum number of tokens that can be stored.
	// Defaults to Rate.
	Burst int

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock
}

// Limiter is a token bucket. It is safe for concurrent use.
type Limiter struct {
	mu         sync.Mutex
	rate       float64
	burst      int
	tokens     float64
	lastUpdate time.Time
	clock      Clock
}

// New creates a Limiter starting with a full bucket.
func New(config Config) (*Limiter, error) {
	if config.Rate <= 0 {
		return nil, errors.NewValidationError("bucket", "rate", config.Rate, "rate must be positive").
			WithHint("rate is the number of bytes allowed per second")
	}
	if config.Burst < 0 {
		return nil, errors.NewValidationError("bucket", "burst", config.Burst, "burst cannot be negative")
	}
	if config.Burst == 0 {
		config.Burst = config.Rate
	}
	if config.Clock == nil {
		config.Clock = SystemClock{}
	}

	return &Limiter{
		rate:       float64(config.Rate),
		burst:      config.Burst,
		tokens:     float64(config.Burst),
		lastUpdate: config.Clock.Now(),
		clock:      config.Clock,
	}, nil
}

// Rate returns the refill rate in tokens per second.
func (l *Limiter) Rate() int {
	return int(l.rate)
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	return l.burst
}

// Tokens returns the current balance. It is negative while a large
// reservation is being repaid.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.updateTokens(l.clock.Now())
	return l.tokens
}
