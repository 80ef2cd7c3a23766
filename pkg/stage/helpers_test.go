package stage

import (
	"context"
	"testing"

	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

// fakeProducer is a hand-driven upstream for consumer tests.
type fakeProducer struct {
	producer
}

func newFakeProducer(t *testing.T, emits ...chunk.Type) *fakeProducer {
	t.Helper()
	if len(emits) == 0 {
		emits = chunk.AllTypes
	}
	p, err := newProducer(Deps{ID: "UP"}.withDefaults(), emits)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeProducer{producer: p}
}

func (f *fakeProducer) ID() string                    { return f.id }
func (f *fakeProducer) Run(ctx context.Context) error { return nil }
func (f *fakeProducer) Stats() Stats                  { return Stats{} }

func (f *fakeProducer) send(t *testing.T, id chunk.ID, data []byte) {
	t.Helper()
	if err := f.emit(context.Background(), id, data); err != nil {
		t.Fatal(err)
	}
}

func (f *fakeProducer) end(t *testing.T, id chunk.ID) {
	t.Helper()
	if err := f.finish(id); err != nil {
		t.Fatal(err)
	}
}

// drain reads every signal a producer sent to q up to and including the
// end marker and returns the fetched chunks in order.
func drain(t *testing.T, p Producer, q *chunk.Queue) (chunks [][]byte, end chunk.ID) {
	t.Helper()
	m, err := p.Mediator(chunk.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for {
		sig, err := q.Next(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if sig.Err != nil {
			t.Fatalf("unexpected failure signal: %v", sig.Err)
		}
		payload, ok, err := m.Fetch(ctx, sig.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			return chunks, sig.ID
		}
		chunks = append(chunks, []byte(payload.(chunk.ByteData)))
	}
}
