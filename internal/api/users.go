package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

// userRequest is the wire shape for creating or updating a user. Some
// clients send the password under "pwd"; Password() resolves that once
// so handlers never see both names.
type userRequest struct {
	Username    string   `json:"username"`
	RawPassword string   `json:"password,omitempty"`
	RawPwd      string   `json:"pwd,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

func (req userRequest) Password() string {
	if req.RawPassword != "" {
		return req.RawPassword
	}
	return req.RawPwd
}

// permissions resolves the effective permission set: explicit grants
// when sent, otherwise the role's defaults.
func (req userRequest) permissions() domain.PermissionSet {
	if len(req.Permissions) > 0 {
		set := domain.PermissionSet{}
		for _, p := range req.Permissions {
			set.Grant(domain.Permission(p))
		}
		return set
	}
	return domain.RolePermissions(req.Role)
}

func userID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid user id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// handleListUsers serves GET /api/users.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.db.ListUsers(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// handleCreateUser serves POST /api/users.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	password := req.Password()
	if password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "hashing password: "+err.Error())
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	user, err := s.db.CreateUser(r.Context(), domain.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
		Permissions:  req.permissions(),
		IsActive:     active,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// handleUpdateUser serves PATCH /api/users/{id}. An empty password
// keeps the stored hash.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	existing, err := s.db.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	u := *existing
	if req.Username != "" {
		u.Username = req.Username
	}
	if req.Role != "" {
		u.Role = req.Role
		u.Permissions = req.permissions()
	} else if len(req.Permissions) > 0 {
		u.Permissions = req.permissions()
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}

	u.PasswordHash = ""
	if password := req.Password(); password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "hashing password: "+err.Error())
			return
		}
		u.PasswordHash = string(hash)
	}

	if err := s.db.UpdateUser(r.Context(), u); err != nil {
		writeDomainError(w, err)
		return
	}
	updated, err := s.db.GetUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteUser serves DELETE /api/users/{id}.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := userID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	found, err := s.db.DeleteUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
