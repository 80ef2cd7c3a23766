package stage

import (
	"context"
	"errors"
	"fmt"
	"slices"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

// producer is the downstream half shared by sources and transforms: it owns
// the chunk store and the notifier of the consumer.
type producer struct {
	id       string
	emits    []chunk.Type
	store    chunk.Store
	notifier chunk.Notifier
}

func newProducer(deps Deps, emits []chunk.Type) (producer, error) {
	store, err := deps.Stores(deps.ID)
	if err != nil {
		return producer{}, cferrors.NewOperationError(cferrors.KindPipelineConstruction, deps.ID, "NewStore", err)
	}
	return producer{id: deps.ID, emits: emits, store: store}, nil
}

// Emits implements Producer.
func (p *producer) Emits() []chunk.Type {
	return p.emits
}

// Mediator implements Producer.
func (p *producer) Mediator(t chunk.Type) (chunk.Mediator, error) {
	if !slices.Contains(p.emits, t) {
		return nil, cferrors.NewOperationError(cferrors.KindPipelineConstruction, p.id, "Mediator",
			fmt.Errorf("%s is not emitted", t))
	}
	return chunk.NewMediator(p.store, t)
}

// SetNotifier implements Producer.
func (p *producer) SetNotifier(n chunk.Notifier) error {
	if n == nil {
		return cferrors.NewOperationError(cferrors.KindInvalidArgument, p.id, "SetNotifier", errors.New("nil notifier"))
	}
	if p.notifier != nil {
		return cferrors.NewOperationError(cferrors.KindPipelineConstruction, p.id, "SetNotifier",
			errors.New("consumer already registered"))
	}
	p.notifier = n
	return nil
}

func (p *producer) checkConnected() error {
	if p.notifier == nil {
		return cferrors.NewOperationError(cferrors.KindPipelineConstruction, p.id, "Run", errors.New("no consumer registered"))
	}
	return nil
}

// emit stores data under id and notifies the consumer.
func (p *producer) emit(ctx context.Context, id chunk.ID, data []byte) error {
	if err := p.store.Put(ctx, id, data); err != nil {
		return cferrors.NewOperationError(cferrors.KindFailedToWrite, p.id, "Put", err).
			WithContext(fmt.Sprintf("chunk %d", id))
	}
	return p.notify(id)
}

// finish notifies the end-of-stream marker.
func (p *producer) finish(end chunk.ID) error {
	return p.notify(end)
}

func (p *producer) notify(id chunk.ID) error {
	if err := p.notifier.Notify(id); err != nil {
		// the consumer already stopped; its own error explains why
		return cferrors.NewOperationError(cferrors.KindSynchronization, p.id, "Notify", err).
			WithContext(fmt.Sprintf("chunk %d", id))
	}
	return nil
}

// fail forwards an abnormal exit downstream. Notifier errors are moot here.
func (p *producer) fail(err error) {
	if p.notifier != nil {
		p.notifier.Fail(err)
	}
}
