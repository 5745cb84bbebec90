package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGrantStore struct {
	rows map[int64][]db.ListGrantsByRoleRow
	err  error
}

func (s stubGrantStore) ListGrantsByRole(_ context.Context, roleID int64) ([]db.ListGrantsByRoleRow, error) {
	return s.rows[roleID], s.err
}

var allActions = []Action{Create, Read, Update, Delete}

func TestAbility_ZeroValueDeniesEverything(t *testing.T) {
	var a Ability
	for _, action := range allActions {
		assert.False(t, a.Can(action, ResourceDocument))
		assert.False(t, a.Can(action, ResourceUser))
	}
	assert.Empty(t, a.Grants())
}

func TestAbility_Can(t *testing.T) {
	a := NewAbility(
		Grant{Resource: ResourceDocument, Action: Read},
		Grant{Resource: ResourceDocument, Action: Create},
	)

	assert.True(t, a.Can(Read, ResourceDocument))
	assert.True(t, a.Can(Create, ResourceDocument))
	assert.False(t, a.Can(Delete, ResourceDocument))
	assert.False(t, a.Can(Read, ResourceUser))
	assert.False(t, a.Can(Read, Resource("Invoice")))
	assert.False(t, a.Can(Action("MANAGE"), ResourceDocument))
}

func TestAbility_GrantsSorted(t *testing.T) {
	a := NewAbility(
		Grant{Resource: ResourceUser, Action: Read},
		Grant{Resource: ResourceDocument, Action: Update},
		Grant{Resource: ResourceDocument, Action: Create},
	)

	assert.Equal(t, []Grant{
		{Resource: ResourceDocument, Action: Create},
		{Resource: ResourceDocument, Action: Update},
		{Resource: ResourceUser, Action: Read},
	}, a.Grants())
}

func TestParseAction(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Action
		ok   bool
	}{
		{"CREATE", Create, true},
		{"read", Read, true},
		{" Update ", Update, true},
		{"DELETE", Delete, true},
		{"WRITE", "", false},
		{"", "", false},
	} {
		got, ok := ParseAction(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestBuilder_Build(t *testing.T) {
	store := stubGrantStore{rows: map[int64][]db.ListGrantsByRoleRow{
		1: {
			{PermissionName: "Document", AccessType: "CREATE"},
			{PermissionName: "Document", AccessType: "READ"},
			{PermissionName: "User", AccessType: "READ"},
			{PermissionName: "Document", AccessType: "ARCHIVE"},
		},
		3: {
			{PermissionName: "Document", AccessType: "READ"},
		},
	}}
	b := NewBuilder(store)
	ctx := context.Background()

	t.Run("grants map one to one", func(t *testing.T) {
		a, err := b.Build(ctx, 1)
		require.NoError(t, err)

		assert.True(t, a.Can(Create, ResourceDocument))
		assert.True(t, a.Can(Read, ResourceDocument))
		assert.True(t, a.Can(Read, ResourceUser))
		assert.False(t, a.Can(Update, ResourceDocument))
		assert.False(t, a.Can(Create, ResourceUser))
		assert.Len(t, a.Grants(), 3)
	})

	t.Run("viewer reads only", func(t *testing.T) {
		a, err := b.Build(ctx, 3)
		require.NoError(t, err)

		assert.True(t, a.Can(Read, ResourceDocument))
		assert.False(t, a.Can(Create, ResourceDocument))
	})

	t.Run("role without grants denies", func(t *testing.T) {
		a, err := b.Build(ctx, 42)
		require.NoError(t, err)
		assert.Empty(t, a.Grants())
		assert.False(t, a.Can(Read, ResourceDocument))
	})

	t.Run("store error is returned", func(t *testing.T) {
		boom := errors.New("connection reset")
		_, err := NewBuilder(stubGrantStore{err: boom}).Build(ctx, 1)
		assert.ErrorIs(t, err, boom)
	})
}
