package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"timeClock/internal/db"
	"timeClock/models"
)

func TestSessionRepository_Lifecycle(t *testing.T) {
	d, err := db.Open("file:sessionrepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	u, err := NewUserRepository(d).Create(ctx, "bob", "", models.RoleEmployee)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	repo := NewSessionRepository(d)
	now := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)

	if err := repo.Create(ctx, models.Session{Token: "live", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("create live: %v", err)
	}
	if err := repo.Create(ctx, models.Session{Token: "old", UserID: u.ID, ExpiresAt: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("create old: %v", err)
	}
	if err := repo.Create(ctx, models.Session{UserID: u.ID}); err == nil {
		t.Fatalf("expected error for empty token")
	}

	s, err := repo.Lookup(ctx, "live")
	if err != nil || s == nil {
		t.Fatalf("lookup: %v %+v", err, s)
	}
	if s.UserID != u.ID || !s.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.Expired(now) {
		t.Fatalf("live session reported expired")
	}

	none, err := repo.Lookup(ctx, "nope")
	if err != nil || none != nil {
		t.Fatalf("expected nil for unknown token: %+v %v", none, err)
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("delete expired: n=%d err=%v", n, err)
	}
	if gone, _ := repo.Lookup(ctx, "old"); gone != nil {
		t.Fatalf("expired session survived sweep")
	}

	if err := repo.Delete(ctx, "live"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gone, _ := repo.Lookup(ctx, "live"); gone != nil {
		t.Fatalf("session survived delete")
	}
}

func TestCachedSessionStore_NilClientPassesThrough(t *testing.T) {
	d, err := db.Open("file:sessioncache?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	u, err := NewUserRepository(d).Create(ctx, "carol", "", models.RoleEmployee)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	store := NewCachedSessionStore(NewSessionRepository(d), nil)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := store.Create(ctx, models.Session{Token: "tok", UserID: u.ID, ExpiresAt: exp}); err != nil {
		t.Fatalf("create: %v", err)
	}
	s, err := store.Lookup(ctx, "tok")
	if err != nil || s == nil || s.UserID != u.ID {
		t.Fatalf("lookup: %+v %v", s, err)
	}
	if err := store.Delete(ctx, "tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s, _ := store.Lookup(ctx, "tok"); s != nil {
		t.Fatalf("session survived delete: %+v", s)
	}
	if got := store.key("abc"); got != "session:abc" {
		t.Fatalf("key = %q", got)
	}
}

func TestCachedSessionStore_RedisDownFallsThrough(t *testing.T) {
	d, err := db.Open("file:sessioncachedown?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	u, err := NewUserRepository(d).Create(ctx, "dave", "", models.RoleEmployee)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	store := NewCachedSessionStore(NewSessionRepository(d), client)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := store.Create(ctx, models.Session{Token: "down", UserID: u.ID, ExpiresAt: exp}); err != nil {
		t.Fatalf("create with redis down: %v", err)
	}
	s, err := store.Lookup(ctx, "down")
	if err != nil || s == nil || s.UserID != u.ID || !s.ExpiresAt.Equal(exp) {
		t.Fatalf("lookup with redis down: %+v %v", s, err)
	}
	if err := store.Delete(ctx, "down"); err != nil {
		t.Fatalf("delete with redis down: %v", err)
	}
	if s, err := store.Lookup(ctx, "down"); err != nil || s != nil {
		t.Fatalf("session survived delete: %+v %v", s, err)
	}
}

// memoryHook answers GET/SET/DEL from a map so cache behaviour can be
// checked without a Redis server.
type memoryHook struct {
	data map[string]string
}

func (h *memoryHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *memoryHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (h *memoryHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		args := cmd.Args()
		key := fmt.Sprint(args[1])
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := h.data[key]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			switch v := args[2].(type) {
			case []byte:
				h.data[key] = string(v)
			default:
				h.data[key] = fmt.Sprint(v)
			}
			c.SetVal("OK")
		case *redis.IntCmd:
			delete(h.data, key)
			c.SetVal(1)
		default:
			return next(ctx, cmd)
		}
		return nil
	}
}

func TestCachedSessionStore_HitAndEvict(t *testing.T) {
	d, err := db.Open("file:sessioncachehit?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	u, err := NewUserRepository(d).Create(ctx, "erin", "", models.RoleEmployee)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	hook := &memoryHook{data: map[string]string{}}
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	client.AddHook(hook)
	t.Cleanup(func() { _ = client.Close() })

	backing := NewSessionRepository(d)
	store := NewCachedSessionStore(backing, client)
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := store.Create(ctx, models.Session{Token: "hit", UserID: u.ID, ExpiresAt: exp}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := hook.data["session:hit"]; !ok {
		t.Fatalf("create did not populate the cache: %v", hook.data)
	}

	// drop the row behind the cache's back; a hit must still resolve
	if err := backing.Delete(ctx, "hit"); err != nil {
		t.Fatalf("backing delete: %v", err)
	}
	s, err := store.Lookup(ctx, "hit")
	if err != nil || s == nil || s.UserID != u.ID || !s.ExpiresAt.Equal(exp) {
		t.Fatalf("cache hit: %+v %v", s, err)
	}

	if err := store.Delete(ctx, "hit"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := hook.data["session:hit"]; ok {
		t.Fatalf("delete did not evict the cache entry")
	}
	if s, err := store.Lookup(ctx, "hit"); err != nil || s != nil {
		t.Fatalf("lookup after evict: %+v %v", s, err)
	}
}
