package authz

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.marketplace.authz.allow"

// Default Rego policy encoding the marketplace role rules. Deployments can
// replace it wholesale via NewOPAEvaluator.
const defaultRegoPolicy = `package marketplace.authz

default allow = false

active if {
	input.user.active
}

# Admins can do anything.
allow if {
	active
	input.user.role == "admin"
}

# Moderators read everything and act on listings under review.
allow if {
	active
	input.user.role == "moderator"
	input.action in {"read", "list", "moderate", "suspend_listing"}
}

# Sellers manage their own listings.
allow if {
	active
	input.user.role == "seller"
	input.action in {"create", "update", "close"}
	input.resource.type == "listing"
	owns_or_creating
}

# Any active account may bid, but never on its own listing.
allow if {
	active
	input.action == "bid"
	input.resource.type == "listing"
	input.resource.owner != input.user.id
}

# Reads are open to every active account.
allow if {
	active
	input.action in {"read", "list"}
}

owns_or_creating if {
	input.resource.owner == ""
}

owns_or_creating if {
	input.resource.owner == input.user.id
}
`

// OPAEvaluator evaluates role policies with the in-process OPA Rego engine.
// The policy set is compiled once at construction.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles the given Rego policies, or the default role
// policy when none are supplied.
func NewOPAEvaluator(ctx context.Context, policies ...string) (*OPAEvaluator, error) {
	if len(policies) == 0 {
		policies = []string{defaultRegoPolicy}
	}
	modules := make(map[string]string, len(policies))
	for i, p := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = p
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return nil, fmt.Errorf("compile authz policy: %w", err)
	}
	query, err := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare authz query: %w", err)
	}
	return &OPAEvaluator{query: query}, nil
}

// Authorize evaluates the policy for in. Fails closed: any evaluation
// problem denies.
func (e *OPAEvaluator) Authorize(ctx context.Context, in Input) (bool, error) {
	input := map[string]interface{}{
		"user": map[string]interface{}{
			"id":     in.UserID,
			"role":   in.Role,
			"active": in.Active,
		},
		"action": in.Action,
		"resource": map[string]interface{}{
			"type":  in.ResourceType,
			"owner": in.ResourceOwner,
		},
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval authz policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}

// HealthCheck verifies the compiled policy evaluates for a minimal input.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.Authorize(ctx, Input{Role: RoleBuyer, Active: true, Action: "read"})
	return err
}
