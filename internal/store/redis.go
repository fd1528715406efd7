package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dyluth/regent/pkg/puzzle"
	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps one hash per record plus a set of stored identifiers.
// All keys are namespaced so several stores can share one server.
type RedisBackend struct {
	rdb       *redis.Client
	namespace string
}

// NewRedisBackend creates a backend for the given namespace.
// Returns an error if namespace is empty.
func NewRedisBackend(redisOpts *redis.Options, namespace string) (*RedisBackend, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	return &RedisBackend{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
	}, nil
}

// Ping verifies Redis connectivity.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}

// LoadAll reads every hash listed in the index set.
func (b *RedisBackend) LoadAll(ctx context.Context) (map[int]*puzzle.Record, error) {
	members, err := b.rdb.SMembers(ctx, puzzle.IndexKey(b.namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read puzzle index from Redis: %w", err)
	}

	records := make(map[int]*puzzle.Record, len(members))
	if len(members) == 0 {
		return records, nil
	}

	ids := make([]int, 0, len(members))
	for _, m := range members {
		id, err := strconv.Atoi(m)
		if err != nil {
			return nil, fmt.Errorf("invalid identifier %q in puzzle index", m)
		}
		ids = append(ids, id)
	}

	pipe := b.rdb.Pipeline()
	cmds := make(map[int]*redis.MapStringStringCmd, len(ids))
	for _, id := range ids {
		cmds[id] = pipe.HGetAll(ctx, puzzle.RecordKey(b.namespace, id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to read puzzles from Redis: %w", err)
	}

	for id, cmd := range cmds {
		hash := cmd.Val()
		// Index entries without a hash are skipped
		if len(hash) == 0 {
			continue
		}
		rec, err := puzzle.HashToRecord(hash)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize puzzle %d: %w", id, err)
		}
		records[id] = rec
	}
	return records, nil
}

// SaveAll replaces the stored mapping in a single MULTI/EXEC transaction.
// Hashes for identifiers that are no longer present are deleted.
func (b *RedisBackend) SaveAll(ctx context.Context, records map[int]*puzzle.Record) error {
	indexKey := puzzle.IndexKey(b.namespace)

	existing, err := b.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read puzzle index from Redis: %w", err)
	}

	hashes := make(map[int]map[string]interface{}, len(records))
	for id, rec := range records {
		hash, err := puzzle.RecordToHash(rec)
		if err != nil {
			return fmt.Errorf("failed to serialize puzzle %d: %w", id, err)
		}
		hashes[id] = hash
	}

	_, err = b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, m := range existing {
			if id, err := strconv.Atoi(m); err == nil {
				if _, keep := records[id]; keep {
					continue
				}
				pipe.Del(ctx, puzzle.RecordKey(b.namespace, id))
			}
		}
		pipe.Del(ctx, indexKey)

		for id, hash := range hashes {
			key := puzzle.RecordKey(b.namespace, id)
			// Drop fields left by an older layout before writing
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, hash)
			pipe.SAdd(ctx, indexKey, id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write puzzles to Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}
