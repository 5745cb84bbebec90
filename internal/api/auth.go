package api

import (
	"net/http"

	"github.com/USSTM/doc-gateway/internal/apperr"
	"github.com/USSTM/doc-gateway/internal/auth"
	"github.com/USSTM/doc-gateway/internal/db"
	"github.com/USSTM/doc-gateway/internal/logging"
	"github.com/oapi-codegen/runtime/types"
)

type LoginRequest struct {
	Email    types.Email `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required"`
}

type RegisterRequest struct {
	FirstName string      `json:"firstName" validate:"required,max=100"`
	LastName  string      `json:"lastName" validate:"required,max=100"`
	Email     types.Email `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=8,max=72"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID        int64       `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Email     types.Email `json:"email"`
	RoleID    int64       `json:"roleId"`
	RoleName  string      `json:"roleName,omitempty"`
	Token     string      `json:"token,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func (s *Server) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	logger := logging.FromContext(r.Context())

	user, token, err := s.authService.Login(r.Context(), string(req.Email), req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	logger.Info("User logged in successfully", "user_id", user.ID)
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// RegisterUser is self registration; the account always gets the Viewer role.
func (s *Server) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, token, err := s.authService.Register(r.Context(), req.params(nil))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user, token))
}

func (s *Server) LogoutUser(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.GetPrincipal(r.Context())
	if !ok {
		writeError(w, r, apperr.ErrUnauthenticated)
		return
	}

	if err := s.authService.Logout(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("User logged out")
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (req RegisterRequest) params(roleID *int64) auth.RegisterParams {
	return auth.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     string(req.Email),
		Password:  req.Password,
		RoleID:    roleID,
	}
}

func toUserResponse(u db.User, token string) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     types.Email(u.Email),
		RoleID:    u.RoleID,
		Token:     token,
	}
}
