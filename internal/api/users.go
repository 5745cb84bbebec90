package api

import (
	"fmt"
	"net/http"

	"github.com/USSTM/doc-gateway/internal/apperr"
	"github.com/USSTM/doc-gateway/internal/auth"
	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"
	"golang.org/x/sync/errgroup"
)

type CreateUserRequest struct {
	RegisterRequest
	RoleID int64 `json:"roleId" validate:"required,gt=0"`
}

type CreateUserResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

type UserListResponse struct {
	Message    string         `json:"message"`
	Users      []UserResponse `json:"users"`
	Pagination PaginationMeta `json:"pagination"`
}

type RoleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type PermissionResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AbilityResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// CreateUser registers an account with an explicit role.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	roleID := req.RoleID
	user, token, err := s.authService.Register(r.Context(), req.params(&roleID))
	if err != nil {
		writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("User created", "new_user_id", user.ID, "role_id", user.RoleID)
	writeJSON(w, http.StatusCreated, CreateUserResponse{
		Message: "User created",
		User:    toUserResponse(user, token),
	})
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	var limit, offset *int
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &limit); err != nil {
		writeError(w, r, fmt.Errorf("limit: %w", apperr.ErrValidation))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", query, &offset); err != nil {
		writeError(w, r, fmt.Errorf("offset: %w", apperr.ErrValidation))
		return
	}
	l, o := parsePagination(limit, offset)

	var (
		rows  []db.ListUsersRow
		total int64
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		rows, err = s.db.Queries().ListUsers(ctx, db.ListUsersParams{Limit: l, Offset: o})
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.db.Queries().CountUsers(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		writeError(w, r, fmt.Errorf("listing users: %w", err))
		return
	}

	users := make([]UserResponse, 0, len(rows))
	for _, u := range rows {
		users = append(users, UserResponse{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     types.Email(u.Email),
			RoleID:    u.RoleID,
			RoleName:  u.RoleName,
		})
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Message:    "Users retrieved successfully",
		Users:      users,
		Pagination: buildPaginationMeta(total, l, o),
	})
}

func (s *Server) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.db.Queries().ListRoles(r.Context())
	if err != nil {
		writeError(w, r, fmt.Errorf("listing roles: %w", err))
		return
	}

	resp := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		resp = append(resp, RoleResponse{ID: role.ID, Name: role.Name})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := s.db.Queries().ListPermissions(r.Context())
	if err != nil {
		writeError(w, r, fmt.Errorf("listing permissions: %w", err))
		return
	}

	resp := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		resp = append(resp, PermissionResponse{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetMyAbilities lists the (resource, action) pairs granted to the caller's role.
func (s *Server) GetMyAbilities(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.GetPrincipal(r.Context())
	ability, err := s.authorizer.Ability(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	grants := ability.Grants()
	resp := make([]AbilityResponse, 0, len(grants))
	for _, g := range grants {
		resp = append(resp, AbilityResponse{Resource: string(g.Resource), Action: string(g.Action)})
	}
	writeJSON(w, http.StatusOK, resp)
}
