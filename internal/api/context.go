package api

import (
	"context"
	"errors"

	"github.com/atelierhq/atelier/internal/types"
)

// Actor is the authenticated caller for one request: the team, or one
// client company. Aggregation calls receive it explicitly rather than
// reading ambient state.
type Actor struct {
	Role      types.Role
	CompanyID string
}

// CanAccessCompany reports whether the actor may read companyID's data.
// The team reaches everything; a client only its own company.
func (a Actor) CanAccessCompany(companyID string) bool {
	if a.Role == types.RoleTeam {
		return true
	}
	return a.CompanyID != "" && a.CompanyID == companyID
}

// actorContextKey is the context key for the authenticated actor.
type actorContextKey struct{}

// ErrNoActorInContext indicates no actor was found in the context.
var ErrNoActorInContext = errors.New("no actor in context")

// WithActor returns a new context with the actor attached.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, a)
}

// ActorFromContext extracts the actor from the context.
func ActorFromContext(ctx context.Context) (Actor, error) {
	a, ok := ctx.Value(actorContextKey{}).(Actor)
	if !ok {
		return Actor{}, ErrNoActorInContext
	}
	return a, nil
}

// MustActorFromContext extracts the actor or panics.
// Use only when middleware guarantees actor presence.
func MustActorFromContext(ctx context.Context) Actor {
	a, err := ActorFromContext(ctx)
	if err != nil {
		panic("actor not in context: middleware misconfiguration")
	}
	return a
}
