package auth

import (
	"context"
	"strings"
)

// Principal is the per-request authorization context derived from a verified
// token. Constructed once per authenticated request, never persisted.
type Principal struct {
	Subject     string
	Email       string
	Authorities []string
}

// HasAuthority reports whether the principal carries the exact authority.
func (p Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// HasRole reports whether the principal carries the ROLE_-prefixed form of
// role.
func (p Principal) HasRole(role string) bool {
	return p.HasAuthority(RolePrefix + strings.TrimPrefix(role, RolePrefix))
}

type principalContextKey struct{}

// ContextWithPrincipal attaches the authenticated principal to the context.
func ContextWithPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, &principal)
}

// PrincipalFromContext extracts the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	v, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || v == nil {
		return Principal{}, false
	}
	return *v, true
}
