package identity

import "time"

// Tier is a ranked service level. Higher tiers inherit every capability of
// lower tiers; the order is total.
type Tier string

// Service tiers in ascending rank order.
const (
	TierNormal    Tier = "normal"
	TierPremium   Tier = "premium"
	TierVIP       Tier = "vip"
	TierConcierge Tier = "concierge"
	TierAdmin     Tier = "admin"
)

var tierRanks = map[Tier]int{
	TierNormal:    1,
	TierPremium:   2,
	TierVIP:       3,
	TierConcierge: 4,
	TierAdmin:     5,
}

// Rank returns the numeric rank of the tier, or 0 for an unknown tier.
func (t Tier) Rank() int {
	return tierRanks[t]
}

// Valid reports whether the tier is a known service level.
func (t Tier) Valid() bool {
	_, ok := tierRanks[t]
	return ok
}

// Tiers lists all tiers in ascending rank order.
func Tiers() []Tier {
	return []Tier{TierNormal, TierPremium, TierVIP, TierConcierge, TierAdmin}
}

// Role describes what kind of actor the principal is. Role and tier are
// independent axes: a vip-tier account can still be a plain rider.
type Role string

// Platform roles.
const (
	RoleRider     Role = "rider"
	RoleDriver    Role = "driver"
	RoleFleet     Role = "fleet"
	RoleConcierge Role = "concierge"
	RoleAdmin     Role = "admin"
)

var validRoles = map[Role]struct{}{
	RoleRider:     {},
	RoleDriver:    {},
	RoleFleet:     {},
	RoleConcierge: {},
	RoleAdmin:     {},
}

// Valid reports whether the role is known.
func (r Role) Valid() bool {
	_, ok := validRoles[r]
	return ok
}

// Principal is the authenticated actor a permission check runs against.
// Accounts are soft-deleted only; Active=false keeps the audit trail intact.
type Principal struct {
	ID          int64
	Email       string
	Tier        Tier
	Role        Role
	MFAVerified bool
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Requirement is the tier/MFA gate a capability demands. Role restrictions
// live in the access package; this is the pure tier model contract.
type Requirement struct {
	Capability  string
	MinRank     int
	MFARequired bool
}

// Satisfies reports whether the principal's tier and MFA state meet the
// requirement. Pure function over immutable snapshots; inactive accounts
// are handled by the evaluator, not here.
func Satisfies(p Principal, req Requirement) bool {
	if p.Tier.Rank() < req.MinRank {
		return false
	}
	if req.MFARequired && !p.MFAVerified {
		return false
	}
	return true
}
