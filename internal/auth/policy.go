package auth

// IdentitySource exposes the current identity.
type IdentitySource interface {
	Current() *Identity
}

// Policy answers authorization questions against the current identity.
type Policy struct {
	source IdentitySource
}

// NewPolicy builds a policy over source.
func NewPolicy(source IdentitySource) Policy {
	return Policy{source: source}
}

// IsAuthenticated reports whether an identity is present.
func (p Policy) IsAuthenticated() bool {
	return p.source.Current() != nil
}

// HasRole is false without an identity, even for an empty list. One role is an
// exact match, several are a membership test.
func (p Policy) HasRole(roles ...Role) bool {
	ident := p.source.Current()
	if ident == nil {
		return false
	}
	return RoleSet(roles).Contains(ident.Role)
}

// SatisfiesRouteRequirement treats an empty requirement as "any identity".
func (p Policy) SatisfiesRouteRequirement(required RoleSet) bool {
	if len(required) == 0 {
		return true
	}
	return p.HasRole(required...)
}
