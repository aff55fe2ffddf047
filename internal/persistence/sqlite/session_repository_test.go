package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/booking-portal/internal/persistence"
)

func newSessionRepository(t *testing.T) *SessionRepository {
	t.Helper()
	pool := newTestPool(t)
	if err := NewUserRepository(pool).CreateUser(context.Background(), testUser("user1", "alice")); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return NewSessionRepository(pool)
}

func testSession(id string) persistence.Session {
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return persistence.Session{
		ID:        id,
		UserID:    "user1",
		IssuedAt:  issued,
		ExpiresAt: issued.Add(24 * time.Hour),
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	repo := newSessionRepository(t)
	ctx := context.Background()

	session := testSession("jti-1")
	if err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	retrieved, err := repo.GetSession(ctx, "jti-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved.UserID != "user1" {
		t.Errorf("expected user1, got %q", retrieved.UserID)
	}
	if !retrieved.IssuedAt.Equal(session.IssuedAt) || !retrieved.ExpiresAt.Equal(session.ExpiresAt) {
		t.Errorf("expected timestamps to round-trip, got %+v", retrieved)
	}
	if retrieved.RevokedAt != nil {
		t.Errorf("expected fresh session to be unrevoked, got %v", retrieved.RevokedAt)
	}

	t.Run("duplicate jti", func(t *testing.T) {
		if err := repo.CreateSession(ctx, session); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		orphan := testSession("jti-orphan")
		orphan.UserID = "ghost"
		if err := repo.CreateSession(ctx, orphan); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		if _, err := repo.GetSession(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSessionRepository_RevokeSession(t *testing.T) {
	repo := newSessionRepository(t)
	ctx := context.Background()

	if err := repo.CreateSession(ctx, testSession("jti-1")); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	first := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	if err := repo.RevokeSession(ctx, "jti-1", first); err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}

	// A second revocation keeps the earlier timestamp.
	if err := repo.RevokeSession(ctx, "jti-1", first.Add(time.Hour)); err != nil {
		t.Fatalf("repeat RevokeSession failed: %v", err)
	}

	retrieved, err := repo.GetSession(ctx, "jti-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved.RevokedAt == nil || !retrieved.RevokedAt.Equal(first) {
		t.Errorf("expected revokedAt %v, got %v", first, retrieved.RevokedAt)
	}

	t.Run("missing session", func(t *testing.T) {
		if err := repo.RevokeSession(ctx, "ghost", first); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSessionRepository_DeleteExpiredSessions(t *testing.T) {
	repo := newSessionRepository(t)
	ctx := context.Background()

	live := testSession("jti-live")
	expired := testSession("jti-expired")
	expired.ExpiresAt = expired.IssuedAt.Add(time.Hour)
	for _, session := range []persistence.Session{live, expired} {
		if err := repo.CreateSession(ctx, session); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	cutoff := expired.ExpiresAt.Add(time.Minute)
	if err := repo.DeleteExpiredSessions(ctx, cutoff); err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}

	if _, err := repo.GetSession(ctx, "jti-expired"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
	if _, err := repo.GetSession(ctx, "jti-live"); err != nil {
		t.Fatalf("expected live session to survive, got %v", err)
	}
}
