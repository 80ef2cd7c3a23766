package chunk

import (
	"context"
	"fmt"
)

// Mediator gives a consumer exactly-once access to its producer's pending
// chunks, converted to the negotiated representation.
type Mediator interface {
	// Type reports the representation this mediator delivers.
	Type() Type

	// Fetch claims the chunk stored under id. ok is false when no entry
	// exists: that id is the end-of-stream marker, or it was already
	// claimed by an earlier Fetch.
	Fetch(ctx context.Context, id ID) (p Payload, ok bool, err error)
}

type mediator struct {
	store   Store
	typ     Type
	convert func([]byte) (Payload, error)
}

// NewMediator binds a store to a representation for the lifetime of a run.
func NewMediator(store Store, t Type) (Mediator, error) {
	m := &mediator{store: store, typ: t}
	switch t {
	case Bytes:
		m.convert = func(raw []byte) (Payload, error) { return ByteData(raw), nil }
	case Words:
		m.convert = func(raw []byte) (Payload, error) { return toWords(raw), nil }
	case Chars:
		m.convert = func(raw []byte) (Payload, error) { return toChars(raw) }
	default:
		return nil, fmt.Errorf("no mediator for %s", t)
	}
	return m, nil
}

func (m *mediator) Type() Type {
	return m.typ
}

func (m *mediator) Fetch(ctx context.Context, id ID) (Payload, bool, error) {
	raw, ok, err := m.store.Take(ctx, id)
	if err != nil || !ok {
		return nil, false, err
	}
	// conversion runs outside the store lock
	p, err := m.convert(raw)
	if err != nil {
		return nil, false, fmt.Errorf("chunk %d: %w", id, err)
	}
	return p, true, nil
}
