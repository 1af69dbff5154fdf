package cache

import (
	"sync"
	"time"

	"miragepos/models"
)

// UserSessionCache is the only session store: sessions are never persisted.
type UserSessionCache struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewUserSessionCache() *UserSessionCache {
	return &UserSessionCache{sessions: make(map[string]models.Session)}
}

func (c *UserSessionCache) AddSession(s models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = s
}

// FindSessionBySessionToken returns the session for token. Expired sessions
// are dropped and reported as missing.
func (c *UserSessionCache) FindSessionBySessionToken(token string) (models.Session, bool) {
	c.mu.RLock()
	s, ok := c.sessions[token]
	c.mu.RUnlock()
	if !ok {
		return models.Session{}, false
	}
	if s.Expired() {
		c.DeleteSessionBySessionToken(token)
		return models.Session{}, false
	}
	return s, true
}

func (c *UserSessionCache) DeleteSessionBySessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, token)
}

// DeleteSessionsForUser signs a deleted user out everywhere.
func (c *UserSessionCache) DeleteSessionsForUser(userID int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for token, s := range c.sessions {
		if s.UserID == userID {
			delete(c.sessions, token)
			n++
		}
	}
	return n
}

// Clear drops every session, e.g. after a backup restore replaced the users.
func (c *UserSessionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = make(map[string]models.Session)
}

// PurgeExpired removes sessions that expired before now.
func (c *UserSessionCache) PurgeExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for token, s := range c.sessions {
		if now.After(s.ExpiresAt) {
			delete(c.sessions, token)
			n++
		}
	}
	return n
}

func (c *UserSessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
