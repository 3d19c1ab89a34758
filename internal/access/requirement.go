package access

import (
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
)

// CheckKind tags the variant of a single authorization check.
type CheckKind string

// Check variants. Composite-and is the only combinator; capabilities are
// gates, not boolean algebra.
const (
	CheckTier CheckKind = "tier"
	CheckRole CheckKind = "role"
	CheckMFA  CheckKind = "mfa"
	CheckAll  CheckKind = "all"
)

// Check is one node of a requirement. Exactly one field group is used,
// selected by Kind.
type Check struct {
	Kind    CheckKind
	MinRank int
	Roles   []identity.Role
	All     []Check
}

// TierAtLeast builds a tier-rank check.
func TierAtLeast(t identity.Tier) Check {
	return Check{Kind: CheckTier, MinRank: t.Rank()}
}

// RoleIn builds a role-membership check.
func RoleIn(roles ...identity.Role) Check {
	return Check{Kind: CheckRole, Roles: roles}
}

// MFA builds an MFA-verified check.
func MFA() Check {
	return Check{Kind: CheckMFA}
}

// AllOf combines checks; every child must pass.
func AllOf(checks ...Check) Check {
	return Check{Kind: CheckAll, All: checks}
}

// Requirement is the declarative gate for one named capability. Immutable
// once registered.
type Requirement struct {
	Capability string
	Check      Check
	// MinRank mirrors the tier floor inside Check so denials can report the
	// rank the subject fell short of.
	MinRank int
}

// Deny reasons. These are the only authorization details exposed to callers.
const (
	ReasonInsufficientTier  = "insufficient_tier"
	ReasonMFARequired       = "mfa_required"
	ReasonRoleRestricted    = "role_restricted"
	ReasonInactiveAccount   = "inactive_account"
	ReasonUnknownCapability = "unknown_capability"
)

// Decision is the outcome of one evaluation.
type Decision struct {
	Allow        bool
	Reason       string
	Capability   string
	RequiredRank int
}

// evaluateCheck walks the check tree. It returns the first failing reason in
// a fixed order (tier before mfa before role) so decisions are deterministic
// regardless of how a composite was declared.
func evaluateCheck(p identity.Principal, c Check) (bool, string) {
	switch c.Kind {
	case CheckTier:
		if p.Tier.Rank() < c.MinRank {
			return false, ReasonInsufficientTier
		}
		return true, ""
	case CheckMFA:
		if !p.MFAVerified {
			return false, ReasonMFARequired
		}
		return true, ""
	case CheckRole:
		for _, role := range c.Roles {
			if p.Role == role {
				return true, ""
			}
		}
		return false, ReasonRoleRestricted
	case CheckAll:
		// Evaluate in severity order: tier, mfa, role, nested composites.
		order := []CheckKind{CheckTier, CheckMFA, CheckRole, CheckAll}
		for _, kind := range order {
			for _, child := range c.All {
				if child.Kind != kind {
					continue
				}
				if ok, reason := evaluateCheck(p, child); !ok {
					return false, reason
				}
			}
		}
		return true, ""
	default:
		return false, ReasonUnknownCapability
	}
}
