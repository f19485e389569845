package repository

import (
	"context"
	"testing"

	"timeClock/internal/db"
	"timeClock/models"
)

func TestUserRepository_CRUDAndQueries(t *testing.T) {
	d, err := db.Open("file:userrepo?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	repo := NewUserRepository(d)
	ctx := context.Background()

	u, err := repo.Create(ctx, "alice", "hash", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 || u.Username != "alice" || u.Role != models.RoleEmployee {
		t.Fatalf("unexpected created user: %+v", u)
	}

	g, err := repo.GetByID(ctx, u.ID)
	if err != nil || g == nil || g.Username != "alice" || g.PasswordHash != "hash" {
		t.Fatalf("get by id: %v %+v", err, g)
	}

	g2, err := repo.GetByUsername(ctx, "alice")
	if err != nil || g2 == nil || g2.ID != u.ID {
		t.Fatalf("get by username: %v %+v", err, g2)
	}

	missing, err := repo.GetByID(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown id, got %+v err=%v", missing, err)
	}

	if err := repo.UpdateRoleByUsername(ctx, "alice", models.RoleAdmin); err != nil {
		t.Fatalf("update role: %v", err)
	}
	g3, _ := repo.GetByUsername(ctx, "alice")
	if !g3.IsAdmin() {
		t.Fatalf("role not updated: %+v", g3)
	}

	if err := repo.UpdatePasswordHash(ctx, u.ID, "hash2"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if err := repo.UpdatePasswordHash(ctx, 9999, "x"); err == nil {
		t.Fatalf("expected error updating unknown user")
	}

	if _, err := repo.Create(ctx, "alice", "", ""); err == nil {
		t.Fatalf("expected unique violation for duplicate username")
	}
}
