// internal/server/store.go
package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"daystar-admissions/internal/common/errors"
	"daystar-admissions/internal/wizard"
)

// SessionStore keeps in-progress wizard sessions between requests.
type SessionStore interface {
	Get(ctx context.Context, id string) (*wizard.Session, error)
	Save(ctx context.Context, sess *wizard.Session) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. This matches the original
// behavior where abandoning the page loses the in-progress application.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*wizard.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*wizard.Session)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*wizard.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[id]
	if !ok {
		return nil, errors.NewSessionNotFoundError(id)
	}
	return sess, nil
}

func (m *MemoryStore) Save(_ context.Context, sess *wizard.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

const sessionKeyPrefix = "admissions:session:"

// RedisStore keeps sessions in Redis with a TTL, so an in-progress
// application survives a reload until the TTL expires.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id string) (*wizard.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, errors.NewSessionNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}

	var sess wizard.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, errors.NewSessionStoreFailedError(err)
	}
	return &sess, nil
}

func (r *RedisStore) Save(ctx context.Context, sess *wizard.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+sess.ID, data, r.ttl).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return errors.NewSessionStoreFailedError(err)
	}
	return nil
}
