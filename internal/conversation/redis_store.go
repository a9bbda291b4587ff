package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultContextTTL is the sliding retention window for conversation state.
// Every Update refreshes it; an idle contact's context expires out of Redis.
const DefaultContextTTL = 24 * time.Hour

// RedisStore keeps conversation contexts in Redis with a sliding TTL.
type RedisStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore creates a Redis-backed context store. ttl <= 0 uses
// DefaultContextTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	return &RedisStore{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("realnex.internal.conversation.store"),
	}
}

var _ Store = (*RedisStore)(nil)

func contextKey(contactID string) string {
	return fmt.Sprintf("ctx:%s", contactID)
}

// Get loads the contact's context, or returns a fresh default without
// persisting it.
func (s *RedisStore) Get(ctx context.Context, contactID string) (Context, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.get_context")
	defer span.End()

	data, err := s.redis.Get(ctx, contextKey(contactID)).Bytes()
	if err == redis.Nil {
		return Context{ContactID: contactID}, nil
	}
	if err != nil {
		span.RecordError(err)
		return Context{}, fmt.Errorf("conversation: failed to load context: %w", err)
	}

	var c Context
	if err := json.Unmarshal(data, &c); err != nil {
		span.RecordError(err)
		return Context{}, fmt.Errorf("conversation: failed to decode context: %w", err)
	}
	return c, nil
}

// Update applies mutate to the stored (or default) context and persists the
// result, refreshing the TTL.
func (s *RedisStore) Update(ctx context.Context, contactID string, mutate func(*Context)) (Context, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.update_context")
	defer span.End()

	c, err := s.Get(ctx, contactID)
	if err != nil {
		return Context{}, err
	}

	mutate(&c)
	c.ContactID = contactID
	c.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(c)
	if err != nil {
		span.RecordError(err)
		return Context{}, fmt.Errorf("conversation: failed to marshal context: %w", err)
	}
	if err := s.redis.Set(ctx, contextKey(contactID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return Context{}, fmt.Errorf("conversation: failed to persist context: %w", err)
	}
	return c, nil
}

// Clear removes the contact's context.
func (s *RedisStore) Clear(ctx context.Context, contactID string) error {
	ctx, span := s.tracer.Start(ctx, "conversation.clear_context")
	defer span.End()

	if err := s.redis.Del(ctx, contextKey(contactID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to clear context: %w", err)
	}
	return nil
}
