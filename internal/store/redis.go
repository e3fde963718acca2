package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/donaldgifford/slot-watcher/internal/config"
	domain "github.com/donaldgifford/slot-watcher/pkg/types"
)

// RedisStore implements Store with one JSON value per target key. A SET
// replaces the value atomically.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg *config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return NewRedisStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(targetID string) string {
	return s.prefix + targetID
}

// Load reads and decodes the value for targetID.
func (s *RedisStore) Load(ctx context.Context, targetID string) (*domain.MonitorState, error) {
	data, err := s.client.Get(ctx, s.key(targetID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading state for %s: %w", targetID, err)
	}

	st := &domain.MonitorState{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("decoding state for %s: %w", targetID, err)
	}
	return st, nil
}

// Save encodes and stores state without expiry.
func (s *RedisStore) Save(ctx context.Context, state *domain.MonitorState) error {
	if err := validateState(state); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(state.TargetID), data, 0).Err(); err != nil {
		return fmt.Errorf("saving state for %s: %w", state.TargetID, err)
	}
	return nil
}

// Delete removes the key for targetID.
func (s *RedisStore) Delete(ctx context.Context, targetID string) error {
	if err := s.client.Del(ctx, s.key(targetID)).Err(); err != nil {
		return fmt.Errorf("deleting state for %s: %w", targetID, err)
	}
	return nil
}

// List scans every key under the prefix.
func (s *RedisStore) List(ctx context.Context) ([]domain.MonitorState, error) {
	var out []domain.MonitorState
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		st, err := s.Load(ctx, strings.TrimPrefix(iter.Val(), s.prefix))
		if errors.Is(err, ErrNotFound) {
			continue // deleted mid-scan
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *st)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning state keys: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetID < out[j].TargetID })
	return out, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
