package cache

import (
	"testing"
	"time"

	"miragepos/models"
)

func TestSessionCacheDropsExpired(t *testing.T) {
	c := NewUserSessionCache()
	c.AddSession(models.Session{ID: "live", UserID: 1, ExpiresAt: time.Now().Add(time.Hour)})
	c.AddSession(models.Session{ID: "old", UserID: 1, ExpiresAt: time.Now().Add(-time.Minute)})

	if _, ok := c.FindSessionBySessionToken("old"); ok {
		t.Fatalf("expected expired session to be missing")
	}
	if _, ok := c.FindSessionBySessionToken("live"); !ok {
		t.Fatalf("expected live session")
	}
	if c.Len() != 1 {
		t.Fatalf("expected expired session removed, len=%d", c.Len())
	}
}

func TestSessionCacheDeleteForUser(t *testing.T) {
	c := NewUserSessionCache()
	exp := time.Now().Add(time.Hour)
	c.AddSession(models.Session{ID: "a", UserID: 1, ExpiresAt: exp})
	c.AddSession(models.Session{ID: "b", UserID: 1, ExpiresAt: exp})
	c.AddSession(models.Session{ID: "c", UserID: 2, ExpiresAt: exp})

	if n := c.DeleteSessionsForUser(1); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, ok := c.FindSessionBySessionToken("c"); !ok {
		t.Fatalf("expected other user's session kept")
	}
	if n := c.PurgeExpired(exp.Add(time.Second)); n != 1 {
		t.Fatalf("expected 1 purged, got %d", n)
	}
}
