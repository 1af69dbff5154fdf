package cache

import (
	"sync"
)

// Resource is one route a role may call.
type Resource struct {
	UserResourceCode string
	Path             string
	Method           string
	Role             string
}

// RbacRolesCache holds the route table per role. It is filled once while the
// router is built and read on every request.
type RbacRolesCache struct {
	mu        sync.RWMutex
	resources map[string][]Resource
}

func NewRbacRolesCache() *RbacRolesCache {
	return &RbacRolesCache{resources: make(map[string][]Resource)}
}

func (c *RbacRolesCache) Add(role string, r Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[role] = append(c.resources[role], r)
}

func (c *RbacRolesCache) GetRolesAndResources(roles []string) []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Resource, 0)
	for _, role := range roles {
		out = append(out, c.resources[role]...)
	}
	return out
}

// Codes returns the resource codes granted to role, in registration order.
func (c *RbacRolesCache) Codes(role string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	codes := make([]string, 0, len(c.resources[role]))
	for _, r := range c.resources[role] {
		codes = append(codes, r.UserResourceCode)
	}
	return codes
}
