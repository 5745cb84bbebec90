package auth

import (
	"context"
	"fmt"

	"github.com/USSTM/doc-gateway/internal/apperr"
	"github.com/USSTM/doc-gateway/internal/rbac"
)

// Guard decides whether a principal may perform an action on a resource
// type. Grants are loaded on every call.
type Guard struct {
	builder *rbac.Builder
}

func NewGuard(builder *rbac.Builder) *Guard {
	return &Guard{builder: builder}
}

func (g *Guard) Ability(ctx context.Context, p *Principal) (rbac.Ability, error) {
	if p == nil {
		return rbac.Ability{}, apperr.ErrUnauthenticated
	}
	return g.builder.Build(ctx, p.RoleID)
}

// Authorize returns nil on allow and apperr.ErrForbidden on deny.
func (g *Guard) Authorize(ctx context.Context, p *Principal, action rbac.Action, resource rbac.Resource) error {
	ability, err := g.Ability(ctx, p)
	if err != nil {
		return err
	}
	if !ability.Can(action, resource) {
		return fmt.Errorf("%s %s: %w", action, resource, apperr.ErrForbidden)
	}
	return nil
}
