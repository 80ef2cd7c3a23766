package bucket

import (
	"context"
	"math"
	"time"
)

// Reservation is a grant of tokens that becomes usable at a point in time.
type Reservation struct {
	timeToAct time.Time
	tokens    int
	lim       *Limiter
}

// DelayFrom returns how long after now the reservation may act.
func (r *Reservation) DelayFrom(now time.Time) time.Duration {
	delay := r.timeToAct.Sub(now)
	if delay < 0 {
		return 0
	}
	return delay
}

// Cancel gives the reserved tokens back.
func (r *Reservation) Cancel() {
	if r.tokens > 0 {
		r.lim.cancelReservation(r)
	}
}

// AllowN reports whether n tokens are available now, taking them if so.
func (l *Limiter) AllowN(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.updateTokens(l.clock.Now())
	if l.tokens < float64(n) {
		return false
	}
	l.tokens -= float64(n)
	return true
}

// ReserveN takes n tokens and reports when they may be used.
func (l *Limiter) ReserveN(n int) *Reservation {
	return l.reserveN(l.clock.Now(), n)
}

// WaitN blocks until n tokens are available or ctx is done. Tokens of an
// interrupted wait are returned to the bucket.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := l.clock.Now()
	r := l.reserveN(now, n)
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	}
}

func (l *Limiter) reserveN(now time.Time, n int) *Reservation {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 {
		return &Reservation{timeToAct: now, lim: l}
	}

	l.updateTokens(now)
	// can go negative
	l.tokens -= float64(n)

	timeToAct := now
	if l.tokens < 0 {
		timeToAct = now.Add(time.Duration(float64(time.Second) * -l.tokens / l.rate))
	}
	return &Reservation{timeToAct: timeToAct, tokens: n, lim: l}
}

// updateTokens adds tokens based on the time elapsed since the last update.
func (l *Limiter) updateTokens(now time.Time) {
	elapsed := now.Sub(l.lastUpdate)
	if elapsed <= 0 {
		return
	}
	l.tokens = math.Min(l.tokens+elapsed.Seconds()*l.rate, float64(l.burst))
	l.lastUpdate = now
}

func (l *Limiter) cancelReservation(r *Reservation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.updateTokens(l.clock.Now())
	l.tokens = math.Min(l.tokens+float64(r.tokens), float64(l.burst))
}
