package access

import (
	"context"
	"log/slog"

	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/audit"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/identity"
	"github.com/idorenyinbassey/vip-ride-platform-sub004/internal/shared"
)

// Auditor is the write-side audit contract the evaluator depends on.
type Auditor interface {
	Record(ctx context.Context, ev audit.Event)
}

// RequestContext carries sanitizable request attributes into the audit trail.
type RequestContext struct {
	SourceIP string
	Path     string
	Method   string
}

// Evaluator decides permission checks against the immutable registry.
// Every evaluation writes exactly one audit record, allow or deny.
type Evaluator struct {
	registry *Registry
	auditor  Auditor
	logger   *slog.Logger
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(registry *Registry, auditor Auditor, logger *slog.Logger) *Evaluator {
	return &Evaluator{registry: registry, auditor: auditor, logger: logger}
}

// Evaluate runs the capability's check set against the principal snapshot.
// Deterministic: the same principal and registry state always produce the
// same decision. The audit write is unconditional.
func (e *Evaluator) Evaluate(ctx context.Context, p identity.Principal, capability string, reqctx RequestContext) Decision {
	decision := e.decide(p, capability)
	e.record(ctx, p, decision, reqctx)
	return decision
}

func (e *Evaluator) decide(p identity.Principal, capability string) Decision {
	req, ok := e.registry.Lookup(capability)
	if !ok {
		// Fail closed: an unregistered capability is a programming error,
		// never an implicit allow.
		return Decision{Allow: false, Reason: ReasonUnknownCapability, Capability: capability}
	}
	if !p.Active {
		return Decision{Allow: false, Reason: ReasonInactiveAccount, Capability: capability, RequiredRank: req.MinRank}
	}
	if ok, reason := evaluateCheck(p, req.Check); !ok {
		return Decision{Allow: false, Reason: reason, Capability: capability, RequiredRank: req.MinRank}
	}
	return Decision{Allow: true, Capability: capability, RequiredRank: req.MinRank}
}

func (e *Evaluator) record(ctx context.Context, p identity.Principal, decision Decision, reqctx RequestContext) {
	if e.auditor == nil {
		return
	}
	outcome := audit.OutcomeAllow
	requiredRank := 0
	if !decision.Allow {
		outcome = audit.OutcomeDeny
		requiredRank = decision.RequiredRank
	}
	category := audit.CategoryPermissionCheck
	if decision.Capability == shared.CapVIPDataAccess {
		category = audit.CategoryVIPDataAccess
	}
	meta := map[string]string{
		"capability": decision.Capability,
		"tier":       string(p.Tier),
		"role":       string(p.Role),
	}
	if decision.Reason != "" {
		meta["reason"] = decision.Reason
	}
	if reqctx.Path != "" {
		meta["path"] = reqctx.Path
	}
	if reqctx.Method != "" {
		meta["method"] = reqctx.Method
	}
	e.auditor.Record(ctx, audit.Event{
		PrincipalID:  p.ID,
		EventType:    "permission.evaluate",
		Category:     category,
		Outcome:      outcome,
		SourceIP:     reqctx.SourceIP,
		RequiredRank: requiredRank,
		Metadata:     meta,
	})
}
