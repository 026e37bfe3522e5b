// Package session owns the persisted console session: a single process-wide
// slot holding the authenticated identity as JSON. Absence of the slot is the
// logged-out state. A malformed payload fails closed and reads as logged out.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-adp-api/internal/models"
)

// Store persists the current authenticated identity across process restarts.
// Only one session may be active at a time; Save overwrites the previous one.
type Store interface {
	Save(ctx context.Context, identity models.Identity) error
	Load(ctx context.Context) (*models.Identity, error)
	Clear(ctx context.Context) error
}

// RedisStore keeps the session slot in Redis.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore constructs a Redis-backed session store. A zero TTL keeps the
// slot until it is explicitly cleared.
func NewRedisStore(client *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, key: key, ttl: ttl, logger: logger}
}

// Save serializes and persists the identity into the session slot.
func (s *RedisStore) Save(ctx context.Context, identity models.Identity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal session identity: %w", err)
	}
	if err := s.client.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Load returns the persisted identity, or nil when the slot is absent or its
// payload cannot be decoded. A corrupt slot never grants authorization.
func (s *RedisStore) Load(ctx context.Context) (*models.Identity, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	var identity models.Identity
	if err := json.Unmarshal(raw, &identity); err != nil || !identity.Role.Valid() {
		s.logger.Warn("discarding malformed session payload", zap.Error(err))
		if clearErr := s.client.Del(ctx, s.key).Err(); clearErr != nil {
			s.logger.Warn("failed to clear malformed session", zap.Error(clearErr))
		}
		return nil, nil
	}
	return &identity, nil
}

// Clear removes the session slot.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store for tests and single-binary setups.
type MemoryStore struct {
	mu      sync.Mutex
	payload []byte
}

// NewMemoryStore constructs an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores the identity, replacing any previous session.
func (s *MemoryStore) Save(_ context.Context, identity models.Identity) error {
	payload, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal session identity: %w", err)
	}
	s.mu.Lock()
	s.payload = payload
	s.mu.Unlock()
	return nil
}

// Load returns the stored identity or nil when absent or malformed.
func (s *MemoryStore) Load(_ context.Context) (*models.Identity, error) {
	s.mu.Lock()
	raw := s.payload
	s.mu.Unlock()
	if raw == nil {
		return nil, nil
	}
	var identity models.Identity
	if err := json.Unmarshal(raw, &identity); err != nil || !identity.Role.Valid() {
		return nil, nil
	}
	return &identity, nil
}

// Clear removes the stored session.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.payload = nil
	s.mu.Unlock()
	return nil
}

// Corrupt overwrites the slot with an undecodable payload. Test helper.
func (s *MemoryStore) Corrupt() {
	s.mu.Lock()
	s.payload = []byte("{not json")
	s.mu.Unlock()
}
