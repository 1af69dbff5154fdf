// Package rbac enforces the two POS roles: admin may call everything, staff
// only the routes registered for it.
package rbac

import (
	"strings"

	"miragepos/infrastructure/cache"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// ValidRole reports whether role is admin or staff.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStaff
}

type Rbac struct {
	cache *cache.RbacRolesCache
}

func New(c *cache.RbacRolesCache) *Rbac {
	return &Rbac{cache: c}
}

// Add grants role access to method+path. Path segments may be "*" or a chi
// style "{param}"; a trailing "*" matches any deeper path.
func (r *Rbac) Add(role, code, method, path string) {
	if r == nil || r.cache == nil {
		return
	}
	r.cache.Add(role, cache.Resource{
		Role:             role,
		UserResourceCode: code,
		Method:           strings.ToUpper(method),
		Path:             path,
	})
}

// Allowed reports whether any of roles may call method on path.
func (r *Rbac) Allowed(roles []string, method, path string) bool {
	for _, role := range roles {
		if role == RoleAdmin {
			return true
		}
	}
	if r == nil || r.cache == nil {
		return false
	}
	return ValidateResourceAccess(r.cache.GetRolesAndResources(roles), path, method)
}

func ValidateResourceAccess(resources []cache.Resource, urlPath, method string) bool {
	method = strings.ToUpper(method)
	for _, res := range resources {
		if res.Method != method {
			continue
		}
		if matchPath(res.Path, urlPath) {
			return true
		}
	}
	return false
}

func isWildcard(seg string) bool {
	return seg == "*" || (strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"))
}

func matchPath(pattern, path string) bool {
	if pattern == path {
		return true
	}

	patternSeg := strings.Split(strings.Trim(pattern, "/"), "/")
	pathSeg := strings.Split(strings.Trim(path, "/"), "/")

	last := len(patternSeg) - 1
	if patternSeg[last] == "*" && len(pathSeg) > last {
		return segmentsMatch(patternSeg[:last], pathSeg[:last])
	}
	if len(patternSeg) != len(pathSeg) {
		return false
	}
	return segmentsMatch(patternSeg, pathSeg)
}

func segmentsMatch(pattern, path []string) bool {
	for i := range pattern {
		if isWildcard(pattern[i]) {
			continue
		}
		if pattern[i] != path[i] {
			return false
		}
	}
	return true
}
