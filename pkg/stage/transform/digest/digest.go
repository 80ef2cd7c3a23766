// Package digest implements a passthrough transform that hashes the stream.
//
// The stage forwards every chunk unchanged and feeds it to the configured
// hash. At end of stream the hex digest is logged and kept for Sum.
package digest

import (
	"context"
	"encoding/hex"
	"hash"
	"sync"

	"github.com/minio/blake2b-simd"
	"github.com/minio/sha256-simd"
	"github.com/twmb/murmur3"
	"go.uber.org/zap"

	"github.com/vnykmshr/chunkflow/pkg/common/validation"
	"github.com/vnykmshr/chunkflow/pkg/config"
	"github.com/vnykmshr/chunkflow/pkg/stage"
	"github.com/vnykmshr/chunkflow/pkg/streaming/chunk"
)

// TagAlgorithm selects the hash.
const TagAlgorithm = "ALGORITHM"

// Supported algorithms.
const (
	SHA256  = "sha256"
	Blake2b = "blake2b"
	Murmur3 = "murmur3"
)

var hashers = map[string]func() hash.Hash{
	SHA256:  sha256.New,
	Blake2b: blake2b.New512,
	Murmur3: func() hash.Hash { return murmur3.New128() },
}

// Hasher is a Transformer that hashes and forwards chunks.
type Hasher struct {
	algorithm string
	h         hash.Hash

	mu  sync.Mutex
	sum string
}

// New returns a Hasher for the named algorithm.
func New(module, algorithm string) (*Hasher, error) {
	if err := validation.ValidateOneOf(module, TagAlgorithm, algorithm, SHA256, Blake2b, Murmur3); err != nil {
		return nil, err
	}
	return &Hasher{algorithm: algorithm, h: hashers[algorithm]()}, nil
}

// NewStage is the stage.Factory of the digest transform.
func NewStage(deps stage.Deps, params *config.Params) (stage.Stage, error) {
	algorithm, err := params.String(TagAlgorithm)
	if err != nil {
		return nil, err
	}
	if err := params.Done(); err != nil {
		return nil, err
	}
	h, err := New(deps.ID, algorithm)
	if err != nil {
		return nil, err
	}
	return stage.NewTransform(deps, []chunk.Type{chunk.Bytes}, h)
}

// Transform implements stage.Transformer.
func (d *Hasher) Transform(_ context.Context, _ chunk.ID, p chunk.Payload) ([]byte, error) {
	data, err := chunk.AsBytes(p)
	if err != nil {
		return nil, err
	}
	d.h.Write(data) // never fails
	return data, nil
}

// Finish implements stage.Finisher.
func (d *Hasher) Finish(_ context.Context, logger *zap.Logger) error {
	sum := hex.EncodeToString(d.h.Sum(nil))
	d.mu.Lock()
	d.sum = sum
	d.mu.Unlock()
	logger.Info("stream digest", zap.String("algorithm", d.algorithm), zap.String("digest", sum))
	return nil
}

// Sum returns the hex digest once the stream has ended, or "" before.
func (d *Hasher) Sum() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sum
}
