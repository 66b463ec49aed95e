package domain

import (
	"strings"
	"time"
)

// Role is the closed set of permission levels a user can hold inside a tenant.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User models an identity that belongs to exactly one tenant.
// (Email, TenantID) is unique; TenantID never changes after creation.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IdentitySummary is the public projection of a user. It never carries the
// password hash.
type IdentitySummary struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName,omitempty"`
	Role       Role   `json:"role"`
}

// Summary projects u into an IdentitySummary. tenantName may be empty when the
// caller has no tenant record at hand.
func (u *User) Summary(tenantName string) IdentitySummary {
	return IdentitySummary{
		UserID:     u.ID,
		Email:      u.Email,
		Name:       u.Name,
		TenantID:   u.TenantID,
		TenantName: tenantName,
		Role:       u.Role,
	}
}

// NormalizeEmail lower-cases and trims an email address so lookups within a
// tenant are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
