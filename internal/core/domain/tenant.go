package domain

import (
	"regexp"
	"strings"
	"time"
)

const (
	SlugMinLength = 3
	SlugMaxLength = 50
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Tenant is an isolated organizational scope. Slug is unique and immutable.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeSlug lower-cases and trims a tenant slug.
func NormalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

// ValidSlug reports whether slug is URL-safe and within the length bounds.
func ValidSlug(slug string) bool {
	if len(slug) < SlugMinLength || len(slug) > SlugMaxLength {
		return false
	}
	return slugPattern.MatchString(slug)
}
