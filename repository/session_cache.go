package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"timeClock/models"
)

// CachedSessionStore fronts a SessionStore with a Redis read-through cache.
// Cache entries live until the session expires. Redis errors never fail a
// lookup; the backing store stays authoritative.
type CachedSessionStore struct {
	backing SessionStore
	client  *redis.Client
	prefix  string
	now     func() time.Time
}

// NewCachedSessionStore wraps backing. A nil client disables caching.
func NewCachedSessionStore(backing SessionStore, client *redis.Client) *CachedSessionStore {
	return &CachedSessionStore{
		backing: backing,
		client:  client,
		prefix:  "session:",
		now:     time.Now,
	}
}

func (c *CachedSessionStore) key(token string) string {
	return c.prefix + token
}

type cachedSession struct {
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *CachedSessionStore) Create(ctx context.Context, s models.Session) error {
	if err := c.backing.Create(ctx, s); err != nil {
		return err
	}
	c.store(ctx, &s)
	return nil
}

func (c *CachedSessionStore) Lookup(ctx context.Context, token string) (*models.Session, error) {
	if c.client != nil {
		val, err := c.client.Get(ctx, c.key(token)).Result()
		switch {
		case err == nil:
			var cs cachedSession
			if jerr := json.Unmarshal([]byte(val), &cs); jerr == nil {
				return &models.Session{Token: token, UserID: cs.UserID, ExpiresAt: cs.ExpiresAt}, nil
			}
			log.Printf("session cache: dropping undecodable entry")
			_ = c.client.Del(ctx, c.key(token)).Err()
		case errors.Is(err, redis.Nil):
		default:
			log.Printf("session cache get: %v", err)
		}
	}
	s, err := c.backing.Lookup(ctx, token)
	if err != nil || s == nil {
		return s, err
	}
	c.store(ctx, s)
	return s, nil
}

func (c *CachedSessionStore) Delete(ctx context.Context, token string) error {
	if c.client != nil {
		if err := c.client.Del(ctx, c.key(token)).Err(); err != nil {
			log.Printf("session cache del: %v", err)
		}
	}
	return c.backing.Delete(ctx, token)
}

func (c *CachedSessionStore) store(ctx context.Context, s *models.Session) {
	if c.client == nil {
		return
	}
	ttl := s.ExpiresAt.Sub(c.now())
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(cachedSession{UserID: s.UserID, ExpiresAt: s.ExpiresAt})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(s.Token), data, ttl).Err(); err != nil {
		log.Printf("session cache set: %v", err)
	}
}
