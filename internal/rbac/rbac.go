// Package rbac turns a role's stored grants into a request-scoped Ability.
//
// Grants are seeded in db/migrations/20250301120300_seed_roles_permissions.sql.
package rbac

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/USSTM/doc-gateway/internal/db"
)

// Action is the access type stored on a role grant.
type Action string

const (
	Create Action = "CREATE"
	Read   Action = "READ"
	Update Action = "UPDATE"
	Delete Action = "DELETE"
)

// Resource is a permission name, used as the resource type tag.
type Resource string

const (
	ResourceDocument Resource = "Document"
	ResourceUser     Resource = "User"
)

// Role names
const (
	RoleAdmin  = "Admin"
	RoleEditor = "Editor"
	RoleViewer = "Viewer"
)

// ParseAction normalizes a stored access type. Unknown values report false.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToUpper(strings.TrimSpace(s))); a {
	case Create, Read, Update, Delete:
		return a, true
	default:
		return "", false
	}
}

type Grant struct {
	Resource Resource
	Action   Action
}

// Ability answers Can(action, resource) by set membership over a role's
// grants. The zero value denies everything.
type Ability struct {
	grants map[Grant]struct{}
}

func NewAbility(grants ...Grant) Ability {
	set := make(map[Grant]struct{}, len(grants))
	for _, g := range grants {
		set[g] = struct{}{}
	}
	return Ability{grants: set}
}

func (a Ability) Can(action Action, resource Resource) bool {
	_, ok := a.grants[Grant{Resource: resource, Action: action}]
	return ok
}

// Grants lists the held pairs ordered by resource, then action.
func (a Ability) Grants() []Grant {
	out := make([]Grant, 0, len(a.grants))
	for g := range a.grants {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Resource != out[j].Resource {
			return out[i].Resource < out[j].Resource
		}
		return out[i].Action < out[j].Action
	})
	return out
}

// GrantStore is the read side of the role/permission tables.
type GrantStore interface {
	ListGrantsByRole(ctx context.Context, roleID int64) ([]db.ListGrantsByRoleRow, error)
}

type Builder struct {
	store GrantStore
}

func NewBuilder(store GrantStore) *Builder {
	return &Builder{store: store}
}

// Build loads the grants of roleID. Rows with an access type outside the
// known actions are skipped; an unknown role yields an empty Ability.
func (b *Builder) Build(ctx context.Context, roleID int64) (Ability, error) {
	rows, err := b.store.ListGrantsByRole(ctx, roleID)
	if err != nil {
		return Ability{}, fmt.Errorf("failed to load grants for role %d: %w", roleID, err)
	}

	grants := make([]Grant, 0, len(rows))
	for _, row := range rows {
		action, ok := ParseAction(row.AccessType)
		if !ok {
			continue
		}
		grants = append(grants, Grant{Resource: Resource(row.PermissionName), Action: action})
	}
	return NewAbility(grants...), nil
}
