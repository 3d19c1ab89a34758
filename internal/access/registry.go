package access

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// Registry maps capability names to requirements. Built once at process
// start and treated as immutable for the process lifetime; handlers receive
// it by reference, never through mutable package state.
type Registry struct {
	requirements map[string]Requirement
}

// Lookup returns the requirement for a capability.
func (r *Registry) Lookup(capability string) (Requirement, bool) {
	req, ok := r.requirements[capability]
	return req, ok
}

// Capabilities returns the registered capability names.
func (r *Registry) Capabilities() []string {
	out := make([]string, 0, len(r.requirements))
	for name := range r.requirements {
		out = append(out, name)
	}
	return out
}

// DefaultRegistry builds the compiled-in capability table.
func DefaultRegistry() *Registry {
	reg := &Registry{requirements: make(map[string]Requirement)}

	reg.add(shared.CapRidesRequest, TierAtLeast(identity.TierNormal))
	reg.add(shared.CapRidesView, TierAtLeast(identity.TierNormal))
	reg.add(shared.CapRidesPriority, TierAtLeast(identity.TierPremium))
	reg.add(shared.CapHotelsBook, TierAtLeast(identity.TierPremium))

	// VIP ride data is double-gated: tier and role are independent
	// predicates and both must pass, plus a verified MFA session.
	reg.add(shared.CapVIPDataAccess, AllOf(
		TierAtLeast(identity.TierVIP),
		MFA(),
		RoleIn(identity.RoleConcierge, identity.RoleAdmin),
	))

	reg.add(shared.CapFleetManage, AllOf(
		TierAtLeast(identity.TierNormal),
		RoleIn(identity.RoleFleet, identity.RoleAdmin),
	))

	reg.add(shared.CapPaymentsMethodsManage, AllOf(
		TierAtLeast(identity.TierNormal),
		MFA(),
	))

	reg.add(shared.CapUsersManage, AllOf(
		TierAtLeast(identity.TierAdmin),
		MFA(),
		RoleIn(identity.RoleAdmin),
	))

	reg.add(shared.CapAuditView, AllOf(
		TierAtLeast(identity.TierConcierge),
		MFA(),
		RoleIn(identity.RoleConcierge, identity.RoleAdmin),
	))

	return reg
}

func (r *Registry) add(capability string, check Check) {
	r.requirements[capability] = Requirement{
		Capability: capability,
		Check:      check,
		MinRank:    minRankOf(check),
	}
}

func minRankOf(c Check) int {
	switch c.Kind {
	case CheckTier:
		return c.MinRank
	case CheckAll:
		rank := 0
		for _, child := range c.All {
			if childRank := minRankOf(child); childRank > rank {
				rank = childRank
			}
		}
		return rank
	default:
		return 0
	}
}

// requirementSpec is the YAML override shape for one capability.
type requirementSpec struct {
	MinTier     string   `yaml:"min_tier"`
	MFARequired bool     `yaml:"mfa_required"`
	Roles       []string `yaml:"roles"`
}

// LoadOverrides applies a YAML requirements file over the defaults. The file
// may adjust thresholds for known capabilities or register new ones; it
// runs before the registry is shared, preserving runtime immutability.
func (r *Registry) LoadOverrides(data []byte) error {
	var specs map[string]requirementSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return fmt.Errorf("access: parse requirements: %w", err)
	}
	for name, spec := range specs {
		tier := identity.Tier(spec.MinTier)
		if spec.MinTier != "" && !tier.Valid() {
			return fmt.Errorf("access: capability %s: unknown tier %q", name, spec.MinTier)
		}
		checks := []Check{}
		if spec.MinTier != "" {
			checks = append(checks, TierAtLeast(tier))
		}
		if spec.MFARequired {
			checks = append(checks, MFA())
		}
		if len(spec.Roles) > 0 {
			roles := make([]identity.Role, 0, len(spec.Roles))
			for _, raw := range spec.Roles {
				role := identity.Role(raw)
				if !role.Valid() {
					return fmt.Errorf("access: capability %s: unknown role %q", name, raw)
				}
				roles = append(roles, role)
			}
			checks = append(checks, RoleIn(roles...))
		}
		if len(checks) == 0 {
			return fmt.Errorf("access: capability %s: empty requirement", name)
		}
		if len(checks) == 1 {
			r.add(name, checks[0])
			continue
		}
		r.add(name, AllOf(checks...))
	}
	return nil
}

// LoadOverridesFile reads and applies a requirements file when the path is
// set. A missing path is not an error; the defaults stand.
func (r *Registry) LoadOverridesFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("access: read requirements file: %w", err)
	}
	return r.LoadOverrides(data)
}
