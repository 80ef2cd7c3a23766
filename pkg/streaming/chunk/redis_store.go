package chunk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	// Client is the Redis connection shared by all stores of a run.
	Client redis.UniversalClient

	// KeyPrefix namespaces the keys of one run, e.g. "chunkflow:<run id>".
	KeyPrefix string

	// TTL bounds how long an unclaimed chunk survives an aborted run.
	// Zero means no expiry.
	TTL time.Duration

	// Timeout is applied to every Redis round trip.
	// Default: 5 seconds
	Timeout time.Duration
}

// RedisStore keeps pending chunks in Redis. Take uses GETDEL so each entry
// is claimed exactly once even though the lock lives on the server.
type RedisStore struct {
	config RedisConfig
	prefix string
}

// NewRedisStore creates a store for one stage of one run.
func NewRedisStore(config RedisConfig, stage string) (*RedisStore, error) {
	if config.Client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &RedisStore{
		config: config,
		prefix: config.KeyPrefix + ":" + stage + ":",
	}, nil
}

// RedisStores returns a StoreFactory producing RedisStores that share config.
func RedisStores(config RedisConfig) StoreFactory {
	return func(stage string) (Store, error) {
		return NewRedisStore(config, stage)
	}
}

func (s *RedisStore) key(id ID) string {
	return s.prefix + strconv.FormatUint(uint64(id), 10)
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, id ID, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	if data == nil {
		data = []byte{}
	}
	stored, err := s.config.Client.SetNX(ctx, s.key(id), data, s.config.TTL).Result()
	if err != nil {
		return &RedisError{"put", err}
	}
	if !stored {
		return fmt.Errorf("%w: %d", ErrDuplicateChunk, id)
	}
	return nil
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, id ID) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	data, err := s.config.Client.GetDel(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &RedisError{"take", err}
	}
	return data, true, nil
}

// Len implements Store. Counting keys would need a SCAN, so it is unknown.
func (s *RedisStore) Len() int {
	return -1
}

// RedisError wraps a failed Redis operation.
type RedisError struct {
	Op  string
	Err error
}

func (e *RedisError) Error() string {
	return fmt.Sprintf("redis %s: %v", e.Op, e.Err)
}

func (e *RedisError) Unwrap() error {
	return e.Err
}
