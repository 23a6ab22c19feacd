package security

import (
	"strings"

	"blog-api/internal/domain"
)

const (
	ScopeMeRead         = "me:read"
	ScopeMeUpdate       = "me:update"
	ScopeMeDelete       = "me:delete"
	ScopePostRead       = "post:read"
	ScopePostCreate     = "post:create"
	ScopePostUpdate     = "post:update"
	ScopePostDelete     = "post:delete"
	ScopeCommentRead    = "comment:read"
	ScopeCommentCreate  = "comment:create"
	ScopeCommentUpdate  = "comment:update"
	ScopeCommentDelete  = "comment:delete"
	ScopeCommentRate    = "comment:rate"
	ScopeUserRead       = "user:read"
	ScopeUserDelete     = "user:delete"
	ScopeCategoryCreate = "category:create"
)

// DefaultScopes is requested when a login names no scopes.
var DefaultScopes = []string{
	ScopeMeRead, ScopeMeUpdate, ScopeMeDelete,
	ScopePostRead, ScopePostCreate, ScopePostUpdate, ScopePostDelete,
	ScopeCommentRead, ScopeCommentCreate, ScopeCommentUpdate, ScopeCommentDelete, ScopeCommentRate,
}

var roleScopes = map[domain.Role][]string{
	domain.RoleRegularUser: DefaultScopes,
	domain.RoleModerator:   append(append([]string{}, DefaultScopes...), ScopeUserRead, ScopeCategoryCreate),
	domain.RoleAdmin:       append(append([]string{}, DefaultScopes...), ScopeUserRead, ScopeCategoryCreate, ScopeUserDelete),
}

// ParseScopes splits a space separated scope string.
func ParseScopes(s string) []string {
	return strings.Fields(s)
}

// GrantScopes returns the requested scopes the role is allowed to hold, in
// request order. An empty request asks for DefaultScopes.
func GrantScopes(role domain.Role, requested []string) []string {
	if len(requested) == 0 {
		requested = DefaultScopes
	}

	allowed := make(map[string]struct{}, len(roleScopes[role]))
	for _, s := range roleScopes[role] {
		allowed[s] = struct{}{}
	}

	granted := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, s := range requested {
		if _, ok := allowed[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		granted = append(granted, s)
	}
	return granted
}
