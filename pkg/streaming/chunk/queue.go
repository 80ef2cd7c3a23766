package chunk

import (
	"context"
	"sync"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
)

// Signal is one entry of a consumer's pending-notification queue.
type Signal struct {
	// ID is the chunk that became ready, or the end-of-stream id.
	ID ID

	// Err is set when the producer terminated abnormally. ID is then
	// meaningless and the consumer must stop.
	Err error
}

// Notifier is the producer's handle on its single consumer.
type Notifier interface {
	// Notify reports that chunk id is ready in the producer's store.
	// It returns errors.ErrClosed once the consumer stopped accepting work.
	Notify(id ID) error

	// Fail reports that the producer stopped abnormally.
	Fail(err error)
}

// Queue is a FIFO of pending signals with a condition variable that wakes
// the single consumer goroutine. It implements Notifier for the producer.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []Signal
	closed  bool
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Notify implements Notifier.
func (q *Queue) Notify(id ID) error {
	return q.push(Signal{ID: id})
}

// Fail implements Notifier.
func (q *Queue) Fail(err error) {
	if err == nil {
		err = cferrors.ErrUpstreamFailed
	}
	_ = q.push(Signal{Err: err})
}

func (q *Queue) push(sig Signal) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return cferrors.ErrClosed
	}
	q.pending = append(q.pending, sig)
	q.cond.Signal()
	return nil
}

// Next pops the oldest signal, blocking while the queue is empty. It
// returns ctx.Err() if ctx is done while waiting and errors.ErrClosed if
// the queue was closed.
func (q *Queue) Next(ctx context.Context) (Signal, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	// wakeups may be spurious or stale; only a non-empty queue ends the wait
	for len(q.pending) == 0 {
		if q.closed {
			return Signal{}, cferrors.ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return Signal{}, err
		}
		q.cond.Wait()
	}

	sig := q.pending[0]
	q.pending[0] = Signal{}
	q.pending = q.pending[1:]
	return sig, nil
}

// Close moves the queue to its terminal state: pending signals are dropped
// and further notifications are refused.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.pending = nil
	q.cond.Broadcast()
}

// Len returns the number of pending signals.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
