package chunk

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateChunk is returned when a producer stores the same id twice.
var ErrDuplicateChunk = errors.New("chunk id already stored")

// Store holds a producer's pending output until its consumer claims it.
// Every id is put at most once and taken at most once; Take transfers
// ownership of the returned buffer to the caller.
type Store interface {
	// Put records data under id.
	Put(ctx context.Context, id ID, data []byte) error

	// Take removes and returns the entry for id. ok is false if no entry
	// exists, which is how the end-of-stream id is recognized.
	Take(ctx context.Context, id ID) (data []byte, ok bool, err error)

	// Len returns the number of pending entries, or -1 if unknown.
	Len() int
}

// StoreFactory creates a fresh store for the named stage.
type StoreFactory func(stage string) (Store, error)

// MemoryStore is an in-process Store guarded by a single mutex.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[ID][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[ID][]byte)}
}

// MemoryStores is a StoreFactory producing MemoryStores.
func MemoryStores(string) (Store, error) {
	return NewMemoryStore(), nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, id ID, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateChunk, id)
	}
	if data == nil {
		// a present-but-empty chunk must stay distinguishable from the end marker
		data = []byte{}
	}
	s.entries[id] = data
	return nil
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, id ID) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	return data, ok, nil
}

// Len implements Store.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
