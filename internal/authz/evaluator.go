// Package authz decides whether a user may perform an action on a resource.
// Decisions are delegated to OPA Rego policies so deployments can override
// the role rules without recompiling.
package authz

import "context"

// Marketplace roles.
const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleSeller    = "seller"
	RoleBuyer     = "buyer"
)

// Input is one authorization question.
type Input struct {
	UserID        string
	Role          string
	Active        bool
	Action        string
	ResourceType  string
	ResourceOwner string
}

// Evaluator answers authorization questions.
type Evaluator interface {
	Authorize(ctx context.Context, in Input) (bool, error)
}
