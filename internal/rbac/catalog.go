package rbac

import "strings"

// PermAll is the sentinel capability. A role whose set contains it passes
// every capability check, including tokens never declared anywhere.
const PermAll = "all"

// Catalog maps role names to capability sets. It is built once at process
// start and read-only afterwards, so unlimited concurrent readers need no
// locking.
type Catalog struct {
	roles map[string]map[string]struct{}
}

// NewCatalog builds an immutable catalog from the given role table. Tokens
// are normalized to trimmed lower case; empty tokens are dropped.
func NewCatalog(roles map[string][]string) *Catalog {
	catalog := &Catalog{roles: make(map[string]map[string]struct{}, len(roles))}
	for role, perms := range roles {
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			if p = normalize(p); p != "" {
				set[p] = struct{}{}
			}
		}
		catalog.roles[role] = set
	}
	return catalog
}

// PermissionSet is the resolved authorization of one identity.
type PermissionSet struct {
	all     bool
	members map[string]struct{}
}

// Resolve layers the per-user override string on top of the role's base
// set. Unknown roles resolve to the empty set: authorization fails closed
// rather than erroring. Overrides are additive only; they cannot revoke a
// role-granted capability.
func (c *Catalog) Resolve(role, overrides string) PermissionSet {
	base := c.roles[role]
	resolved := PermissionSet{members: make(map[string]struct{}, len(base)+4)}
	for p := range base {
		if p == PermAll {
			resolved.all = true
		}
		resolved.members[p] = struct{}{}
	}
	for _, p := range SplitOverrides(overrides) {
		resolved.members[p] = struct{}{}
	}
	return resolved
}

// Has reports whether the set grants the capability token.
func (s PermissionSet) Has(token string) bool {
	if s.all {
		return true
	}
	_, ok := s.members[normalize(token)]
	return ok
}

// HasAny reports whether the set grants at least one of the tokens.
func (s PermissionSet) HasAny(tokens ...string) bool {
	for _, token := range tokens {
		if s.Has(token) {
			return true
		}
	}
	return false
}

// HasAll reports whether the set grants every one of the tokens.
func (s PermissionSet) HasAll(tokens ...string) bool {
	for _, token := range tokens {
		if !s.Has(token) {
			return false
		}
	}
	return true
}

// Roles lists the declared role names. Used by the catalog handler only;
// the catalog itself exposes no mutation API.
func (c *Catalog) Roles() []string {
	names := make([]string, 0, len(c.roles))
	for name := range c.roles {
		names = append(names, name)
	}
	return names
}

// Permissions returns the declared capability tokens of a role.
func (c *Catalog) Permissions(role string) []string {
	perms := make([]string, 0, len(c.roles[role]))
	for p := range c.roles[role] {
		perms = append(perms, p)
	}
	return perms
}

// SplitOverrides parses the free-form override column into capability
// tokens. The column is comma separated; whitespace and empty segments are
// ignored.
func SplitOverrides(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = normalize(part); part != "" {
			tokens = append(tokens, part)
		}
	}
	return tokens
}

func normalize(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}
