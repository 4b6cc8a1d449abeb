// Package redis provides a memory.Store backed by Redis lists. Each session
// is one list of JSON encoded messages, so history survives process restarts
// and can be shared between instances.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/hupe1980/beeflow/memory"
	"github.com/hupe1980/beeflow/model"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "beeflow:history:"

// Store implements memory.Store using Redis.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

var _ memory.Store = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithTTL sets the expiration of a session history, refreshed on every append.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for session histories.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// Add appends messages with a single RPUSH.
func (s *Store) Add(ctx context.Context, sessionID string, msgs ...model.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, len(msgs))
	for i, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values[i] = data
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(sessionID), values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(sessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	return nil
}

// Messages reads the whole list.
func (s *Store) Messages(ctx context.Context, sessionID string) ([]model.Message, error) {
	raw, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}

	msgs := make([]model.Message, 0, len(raw))
	for _, item := range raw {
		var msg model.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Reset deletes the session list.
func (s *Store) Reset(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
