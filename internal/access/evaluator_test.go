package access

import (
	"context"
	"testing"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

type captureAuditor struct {
	events []audit.Event
}

func (c *captureAuditor) Record(ctx context.Context, ev audit.Event) {
	c.events = append(c.events, ev)
}

func activePrincipal(tier identity.Tier, role identity.Role, mfa bool) identity.Principal {
	return identity.Principal{ID: 7, Email: "p@example.com", Tier: tier, Role: role, MFAVerified: mfa, Active: true}
}

func TestEvaluateDecisions(t *testing.T) {
	cases := []struct {
		name       string
		principal  identity.Principal
		capability string
		allow      bool
		reason     string
	}{
		{
			name:       "normal rider may request rides",
			principal:  activePrincipal(identity.TierNormal, identity.RoleRider, false),
			capability: shared.CapRidesRequest,
			allow:      true,
		},
		{
			name:       "premium falls short of vip tier floor",
			principal:  activePrincipal(identity.TierPremium, identity.RoleConcierge, true),
			capability: shared.CapVIPDataAccess,
			allow:      false,
			reason:     ReasonInsufficientTier,
		},
		{
			name:       "vip concierge without mfa",
			principal:  activePrincipal(identity.TierVIP, identity.RoleConcierge, false),
			capability: shared.CapVIPDataAccess,
			allow:      false,
			reason:     ReasonMFARequired,
		},
		{
			name:       "vip rider with mfa is role restricted",
			principal:  activePrincipal(identity.TierVIP, identity.RoleRider, true),
			capability: shared.CapVIPDataAccess,
			allow:      false,
			reason:     ReasonRoleRestricted,
		},
		{
			name:       "vip concierge with mfa allowed",
			principal:  activePrincipal(identity.TierVIP, identity.RoleConcierge, true),
			capability: shared.CapVIPDataAccess,
			allow:      true,
		},
		{
			name: "inactive account denied before any check",
			principal: identity.Principal{
				ID: 7, Tier: identity.TierAdmin, Role: identity.RoleAdmin, MFAVerified: true, Active: false,
			},
			capability: shared.CapRidesRequest,
			allow:      false,
			reason:     ReasonInactiveAccount,
		},
		{
			name:       "unregistered capability fails closed",
			principal:  activePrincipal(identity.TierAdmin, identity.RoleAdmin, true),
			capability: "rides.teleport",
			allow:      false,
			reason:     ReasonUnknownCapability,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auditor := &captureAuditor{}
			ev := NewEvaluator(DefaultRegistry(), auditor, nil)
			decision := ev.Evaluate(context.Background(), tc.principal, tc.capability, RequestContext{})
			if decision.Allow != tc.allow {
				t.Fatalf("allow = %v, want %v (reason %q)", decision.Allow, tc.allow, decision.Reason)
			}
			if decision.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", decision.Reason, tc.reason)
			}
			if len(auditor.events) != 1 {
				t.Fatalf("expected exactly one audit event, got %d", len(auditor.events))
			}
		})
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	ev := NewEvaluator(DefaultRegistry(), nil, nil)
	p := activePrincipal(identity.TierVIP, identity.RoleRider, false)
	first := ev.Evaluate(context.Background(), p, shared.CapVIPDataAccess, RequestContext{})
	for i := 0; i < 20; i++ {
		got := ev.Evaluate(context.Background(), p, shared.CapVIPDataAccess, RequestContext{})
		if got != first {
			t.Fatalf("evaluation %d diverged: %+v vs %+v", i, got, first)
		}
	}
}

func TestEvaluateAuditRecordShape(t *testing.T) {
	auditor := &captureAuditor{}
	ev := NewEvaluator(DefaultRegistry(), auditor, nil)

	p := activePrincipal(identity.TierNormal, identity.RoleRider, false)
	ev.Evaluate(context.Background(), p, shared.CapVIPDataAccess, RequestContext{
		SourceIP: "203.0.113.9",
		Path:     "/api/v1/rides/vip",
		Method:   "GET",
	})

	rec := auditor.events[0]
	if rec.Category != audit.CategoryVIPDataAccess {
		t.Fatalf("category = %q, want %q", rec.Category, audit.CategoryVIPDataAccess)
	}
	if rec.Outcome != audit.OutcomeDeny {
		t.Fatalf("outcome = %q, want deny", rec.Outcome)
	}
	if rec.RequiredRank != identity.TierVIP.Rank() {
		t.Fatalf("required rank = %d, want %d", rec.RequiredRank, identity.TierVIP.Rank())
	}
	if rec.SourceIP != "203.0.113.9" {
		t.Fatalf("source ip = %q", rec.SourceIP)
	}
	if rec.Metadata["capability"] != shared.CapVIPDataAccess {
		t.Fatalf("capability metadata = %q", rec.Metadata["capability"])
	}
	if rec.Metadata["reason"] != ReasonInsufficientTier {
		t.Fatalf("reason metadata = %q", rec.Metadata["reason"])
	}

	// Allowed evaluations for ordinary capabilities stay in the permission
	// check category with no required rank.
	ev.Evaluate(context.Background(), p, shared.CapRidesRequest, RequestContext{})
	rec = auditor.events[1]
	if rec.Category != audit.CategoryPermissionCheck {
		t.Fatalf("category = %q, want %q", rec.Category, audit.CategoryPermissionCheck)
	}
	if rec.Outcome != audit.OutcomeAllow {
		t.Fatalf("outcome = %q, want allow", rec.Outcome)
	}
	if rec.RequiredRank != 0 {
		t.Fatalf("required rank on allow = %d, want 0", rec.RequiredRank)
	}
}
