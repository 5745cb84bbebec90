package api

import (
	"net/http"
	"testing"

	"github.com/USSTM/doc-gateway/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMyAbilities(t *testing.T) {
	h := newTestHarness(t)

	resp := h.server.AuthenticatedRequest(t, testutil.Request{
		Method: http.MethodGet,
		Path:   "/user/me/abilities",
	}, "viewer-token")
	require.Equal(t, http.StatusOK, resp.Code)

	var abilities []AbilityResponse
	resp.DecodeJSON(t, &abilities)
	assert.Equal(t, []AbilityResponse{{Resource: "Document", Action: "READ"}}, abilities)
}

func TestUserRoutes_Authorization(t *testing.T) {
	h := newTestHarness(t)

	for _, path := range []string{"/user", "/role", "/permission"} {
		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodGet,
			Path:   path,
		}, "viewer-token")
		assert.Equal(t, http.StatusForbidden, resp.Code, path)
	}

	t.Run("editor cannot create users", func(t *testing.T) {
		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodPost,
			Path:   "/user/register",
			Body:   map[string]interface{}{"roleId": 1},
		}, "editor-token")

		// the grant is checked before the body is validated
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestUserRoutes_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	testDB := getSharedTestDatabase(t)
	h := newTestHarness(t, withDatabase(testDB))

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		testDB.NewUser(t).WithEmail(email).Create()
	}

	t.Run("list users paginates", func(t *testing.T) {
		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method:      http.MethodGet,
			Path:        "/user",
			QueryParams: map[string]string{"limit": "2", "offset": "0"},
		}, "editor-token")
		require.Equal(t, http.StatusOK, resp.Code, string(resp.Raw))

		var body UserListResponse
		resp.DecodeJSON(t, &body)
		assert.Equal(t, "Users retrieved successfully", body.Message)
		assert.Len(t, body.Users, 2)
		assert.Equal(t, 3, body.Pagination.Total)
		assert.True(t, body.Pagination.HasMore)
		assert.Equal(t, "Viewer", body.Users[0].RoleName)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method:      http.MethodGet,
			Path:        "/user",
			QueryParams: map[string]string{"limit": "many"},
		}, "editor-token")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("list roles", func(t *testing.T) {
		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodGet,
			Path:   "/role",
		}, "admin-token")
		require.Equal(t, http.StatusOK, resp.Code)

		var roles []RoleResponse
		resp.DecodeJSON(t, &roles)
		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, r.Name)
		}
		assert.ElementsMatch(t, []string{"Admin", "Editor", "Viewer"}, names)
	})

	t.Run("list permissions", func(t *testing.T) {
		resp := h.server.AuthenticatedRequest(t, testutil.Request{
			Method: http.MethodGet,
			Path:   "/permission",
		}, "admin-token")
		require.Equal(t, http.StatusOK, resp.Code)

		var perms []PermissionResponse
		resp.DecodeJSON(t, &perms)
		assert.Len(t, perms, 2)
	})
}
