// User persistence. Permissions are stored as a JSON object and decoded
// into a typed set exactly once, here at the storage boundary.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/tillpoint-pos/tillpoint/internal/domain"
)

func encodePermissions(set domain.PermissionSet) (string, error) {
	if set == nil {
		set = domain.PermissionSet{}
	}
	b, err := json.Marshal(set)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodePermissions(raw string) domain.PermissionSet {
	set := domain.PermissionSet{}
	if raw == "" {
		return set
	}
	// Bad stored data degrades to an empty set rather than failing reads.
	_ = json.Unmarshal([]byte(raw), &set)
	return set
}

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	var perms string
	var active int
	var created string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &perms, &active, &created)
	if err != nil {
		return nil, err
	}
	u.Permissions = decodePermissions(perms)
	u.IsActive = active == 1
	u.CreatedAt = parseTime(created)
	return &u, nil
}

// CreateUser inserts a user. A duplicate username is a ConflictError.
func (db *DB) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	perms, err := encodePermissions(u.Permissions)
	if err != nil {
		return nil, err
	}
	res, err := db.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, role, permissions, is_active)
		VALUES (?, ?, ?, ?, ?)
	`, u.Username, u.PasswordHash, u.Role, perms, boolInt(u.IsActive))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &domain.ConflictError{Reason: "username already taken: " + u.Username}
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetUser(ctx, id)
}

// GetUser returns a user by id, or (nil, nil) when absent.
func (db *DB) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, permissions, is_active, created_at
		FROM users WHERE id = ?
	`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetUserByUsername returns a user by username, or (nil, nil) when absent.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := db.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, permissions, is_active, created_at
		FROM users WHERE username = ?
	`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// ListUsers returns all users ordered by username.
func (db *DB) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := db.db.QueryContext(ctx, `
		SELECT id, username, password_hash, role, permissions, is_active, created_at
		FROM users ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser overwrites username, role, permissions, active flag, and
// (when non-empty) the password hash. Renaming onto a taken username is
// a ConflictError.
func (db *DB) UpdateUser(ctx context.Context, u domain.User) error {
	perms, err := encodePermissions(u.Permissions)
	if err != nil {
		return err
	}
	res, err := db.db.ExecContext(ctx, `
		UPDATE users SET
			username      = ?,
			role          = ?,
			permissions   = ?,
			is_active     = ?,
			password_hash = CASE WHEN ? = '' THEN password_hash ELSE ? END
		WHERE id = ?
	`, u.Username, u.Role, perms, boolInt(u.IsActive), u.PasswordHash, u.PasswordHash, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ConflictError{Reason: "username already in use: " + u.Username}
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConditionFailed
	}
	return nil
}

// DeleteUser removes a user.
func (db *DB) DeleteUser(ctx context.Context, id int64) (bool, error) {
	res, err := db.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
