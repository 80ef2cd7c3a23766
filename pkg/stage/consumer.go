package stage

import (
	"context"
	"errors"
	"fmt"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/metrics"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

// consumer is the upstream half shared by transforms and sinks: it owns the
// pending-notification queue and the mediator bound at assembly.
type consumer struct {
	id       string
	accepts  []chunk.Type
	queue    *chunk.Queue
	mediator chunk.Mediator
	metrics  *metrics.Registry
}

func newConsumer(deps Deps, accepts []chunk.Type) consumer {
	return consumer{
		id:      deps.ID,
		accepts: accepts,
		queue:   chunk.NewQueue(),
		metrics: deps.Metrics,
	}
}

// Accepts implements Consumer.
func (c *consumer) Accepts() []chunk.Type {
	return c.accepts
}

// SetProducer implements Consumer.
func (c *consumer) SetProducer(p Producer) error {
	if c.mediator != nil {
		return cferrors.NewOperationError(cferrors.KindPipelineConstruction, c.id, "SetProducer",
			errors.New("producer already set"))
	}

	t, ok := chunk.Negotiate(c.accepts, p.Emits())
	if !ok {
		return cferrors.NewOperationError(cferrors.KindPipelineConstruction, c.id, "SetProducer",
			fmt.Errorf("no common type: %s accepts %v, %s emits %v", c.id, c.accepts, p.ID(), p.Emits()))
	}

	m, err := p.Mediator(t)
	if err != nil {
		return err
	}
	if err := p.SetNotifier(c.queue); err != nil {
		return err
	}
	c.mediator = m
	return nil
}

// Type returns the negotiated representation, zero before SetProducer.
func (c *consumer) Type() chunk.Type {
	if c.mediator == nil {
		return 0
	}
	return c.mediator.Type()
}

func (c *consumer) checkConnected() error {
	if c.mediator == nil {
		return cferrors.NewOperationError(cferrors.KindPipelineConstruction, c.id, "Run", errors.New("no producer set"))
	}
	return nil
}

// next waits for the next ready chunk and fetches it. end is true once
// the end-of-stream marker arrived; id is then the marker.
func (c *consumer) next(ctx context.Context) (id chunk.ID, p chunk.Payload, end bool, err error) {
	sig, err := c.queue.Next(ctx)
	if err != nil {
		return 0, nil, false, cferrors.NewOperationError(cferrors.KindSynchronization, c.id, "Wait", err)
	}
	c.metrics.SetQueueDepth(c.id, c.queue.Len())

	if sig.Err != nil {
		return 0, nil, false, &UpstreamError{Stage: c.id, Cause: sig.Err}
	}

	p, ok, err := c.mediator.Fetch(ctx, sig.ID)
	if err != nil {
		return sig.ID, nil, false, cferrors.NewOperationError(cferrors.KindFailedToRead, c.id, "Fetch", err).
			WithContext(fmt.Sprintf("chunk %d", sig.ID))
	}
	return sig.ID, p, !ok, nil
}

// close stops accepting notifications. Producers still running learn that
// this stage is gone on their next Notify.
func (c *consumer) close() {
	c.queue.Close()
}

// UpstreamError is returned by a stage that stopped because a stage before
// it failed. It matches errors.ErrUpstreamFailed and the synchronization
// kind; Cause is the error of the stage that failed first.
type UpstreamError struct {
	Stage string
	Cause error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s stopped: %v: %v", e.Stage, cferrors.ErrUpstreamFailed, e.Cause)
}

// Unwrap returns errors.ErrUpstreamFailed.
func (e *UpstreamError) Unwrap() error {
	return cferrors.ErrUpstreamFailed
}

// Is matches the synchronization kind.
func (e *UpstreamError) Is(target error) bool {
	return target == cferrors.KindSynchronization
}

// rootCause returns the error to forward downstream: the first failure in
// the chain rather than another wrapper around it.
func rootCause(err error) error {
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.Cause
	}
	return err
}
