package api

import (
	"context"
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// ─── Users API Tests ────────────────────────────────────────────────────────

func TestUsers_CreateWithRoleDefaults(t *testing.T) {
	s, db := setupServer(t)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/users",
		`{"username":"alice","password":"hunter2","role":"cashier"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body %s)", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	perms := resp["permissions"].(map[string]interface{})
	if perms["record_sales"] != true {
		t.Errorf("expected cashier to have record_sales, got %v", perms)
	}
	if _, ok := perms["manage_users"]; ok {
		t.Errorf("cashier should not carry manage_users, got %v", perms)
	}

	// The stored hash verifies against the original password.
	u, err := db.GetUserByUsername(context.Background(), "alice")
	if err != nil || u == nil {
		t.Fatalf("get user: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("hunter2")); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}

	// Duplicate username conflicts.
	w = doJSON(t, h, http.MethodPost, "/api/users",
		`{"username":"alice","password":"other","role":"admin"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate username, got %d", w.Code)
	}
}

func TestUsers_PwdFieldFallback(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	w := doJSON(t, h, http.MethodPost, "/api/users",
		`{"username":"bob","pwd":"legacy-field","role":"manager"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 with pwd field, got %d (body %s)", w.Code, w.Body.String())
	}

	w = doJSON(t, h, http.MethodPost, "/api/users",
		`{"username":"carol","role":"manager"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 with no password at all, got %d", w.Code)
	}
}

func TestUsers_UpdateKeepsPassword(t *testing.T) {
	s, db := setupServer(t)
	h := s.Handler()
	ctx := context.Background()

	doJSON(t, h, http.MethodPost, "/api/users",
		`{"username":"dan","password":"original","role":"cashier"}`)
	u, _ := db.GetUserByUsername(ctx, "dan")

	// Update without a password keeps the hash.
	w := doJSON(t, h, http.MethodPatch, "/api/users/1", `{"role":"manager"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	resp := decodeBody(t, w)
	if resp["role"] != "manager" {
		t.Errorf("expected role manager, got %v", resp["role"])
	}
	perms := resp["permissions"].(map[string]interface{})
	if perms["manage_inventory"] != true {
		t.Errorf("expected manager permissions after role change, got %v", perms)
	}

	after, _ := db.GetUserByUsername(ctx, "dan")
	if after.PasswordHash != u.PasswordHash {
		t.Errorf("password hash changed on password-less update")
	}

	// Update with a password rotates it.
	w = doJSON(t, h, http.MethodPatch, "/api/users/1", `{"password":"rotated"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	rotated, _ := db.GetUserByUsername(ctx, "dan")
	if err := bcrypt.CompareHashAndPassword([]byte(rotated.PasswordHash), []byte("rotated")); err != nil {
		t.Errorf("rotated hash does not match new password: %v", err)
	}
}

func TestUsers_Rename(t *testing.T) {
	s, db := setupServer(t)
	h := s.Handler()
	ctx := context.Background()

	doJSON(t, h, http.MethodPost, "/api/users",
		`{"username":"frank","password":"x","role":"cashier"}`)
	doJSON(t, h, http.MethodPost, "/api/users",
		`{"username":"grace","password":"x","role":"cashier"}`)

	// Rename persists.
	w := doJSON(t, h, http.MethodPatch, "/api/users/1", `{"username":"francis"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", w.Code, w.Body.String())
	}
	if got := decodeBody(t, w)["username"]; got != "francis" {
		t.Errorf("response username = %v, want francis", got)
	}
	renamed, _ := db.GetUserByUsername(ctx, "francis")
	if renamed == nil {
		t.Fatal("renamed user not found in store")
	}
	if old, _ := db.GetUserByUsername(ctx, "frank"); old != nil {
		t.Error("old username still resolves after rename")
	}

	// Renaming onto a taken username conflicts.
	w = doJSON(t, h, http.MethodPatch, "/api/users/1", `{"username":"grace"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 renaming onto taken username, got %d", w.Code)
	}
}

func TestUsers_Delete(t *testing.T) {
	s, _ := setupServer(t)
	h := s.Handler()

	doJSON(t, h, http.MethodPost, "/api/users",
		`{"username":"eve","password":"x","role":"cashier"}`)

	w := doJSON(t, h, http.MethodDelete, "/api/users/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w = doJSON(t, h, http.MethodDelete, "/api/users/1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}
