package auth

import (
	"sort"
	"strings"
)

const (
	// GroupsClaim is the provider-defined claim carrying group membership.
	GroupsClaim = "cognito:groups"

	// RolePrefix prefixes every group-derived authority.
	RolePrefix = "ROLE_"

	scopeClaim  = "scope"
	scopePrefix = "SCOPE_"
)

// Authorities maps verified token claims to the set of authority strings.
// Provider groups become ROLE_-prefixed authorities, unioned with the
// standard scope-derived ones. An absent or malformed groups claim
// contributes nothing; this function has no failure mode.
func Authorities(claims map[string]any) []string {
	set := make(map[string]struct{})

	for _, group := range stringList(claims[GroupsClaim]) {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		set[RolePrefix+group] = struct{}{}
	}

	if scope, ok := claims[scopeClaim].(string); ok {
		for _, s := range strings.Fields(scope) {
			set[scopePrefix+s] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// stringList coerces a claim value into a string slice, tolerating both
// []string and the []any shape JSON decoding produces.
func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
