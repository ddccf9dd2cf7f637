package domain

import "time"

// ─── Users & Permissions ────────────────────────────────────────────────────

// Permission is a named capability grantable to a user.
type Permission string

const (
	PermManageInventory Permission = "manage_inventory"
	PermManageUsers     Permission = "manage_users"
	PermManageCredit    Permission = "manage_credit"
	PermRecordSales     Permission = "record_sales"
	PermViewReports     Permission = "view_reports"
	PermManageTill      Permission = "manage_till"
)

// PermissionSet is a resolved set of capabilities. It is decoded once at
// the storage boundary; call sites only ever ask Has.
type PermissionSet map[Permission]bool

// Has reports whether the permission is granted. Absent keys are denied,
// so an unset permission and an explicitly revoked one behave the same
// at check time even though storage keeps them distinct.
func (s PermissionSet) Has(p Permission) bool {
	return s[p]
}

// Grant adds a permission to the set.
func (s PermissionSet) Grant(p Permission) {
	s[p] = true
}

// RolePermissions returns the default permission set for a role.
func RolePermissions(role string) PermissionSet {
	set := PermissionSet{}
	switch role {
	case "admin":
		for _, p := range []Permission{
			PermManageInventory, PermManageUsers, PermManageCredit,
			PermRecordSales, PermViewReports, PermManageTill,
		} {
			set.Grant(p)
		}
	case "manager":
		for _, p := range []Permission{
			PermManageInventory, PermManageCredit,
			PermRecordSales, PermViewReports, PermManageTill,
		} {
			set.Grant(p)
		}
	case "cashier":
		set.Grant(PermRecordSales)
		set.Grant(PermManageTill)
	}
	return set
}

// User is an administrative account for the POS back office.
// PasswordHash is never serialized.
type User struct {
	ID           int64         `json:"id"`
	Username     string        `json:"username"`
	PasswordHash string        `json:"-"`
	Role         string        `json:"role"`
	Permissions  PermissionSet `json:"permissions"`
	IsActive     bool          `json:"isActive"`
	CreatedAt    time.Time     `json:"createdAt"`
}
