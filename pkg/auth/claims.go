package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims presented to the debt service.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
	Roles  []string  `json:"roles"`
}

// HasRole checks if the claims include the specified role.
func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// OwnerID is the loan owner the token speaks for: the user ID, or the
// subject for tokens issued without one.
func (c Claims) OwnerID() string {
	if c.UserID != uuid.Nil {
		return c.UserID.String()
	}
	return c.Subject
}

// ActsForAnyOwner reports whether the caller may address loans it does not own.
func (c Claims) ActsForAnyOwner() bool {
	return c.HasRole(RoleAdmin) || c.HasRole(RoleOperator) || c.HasRole(RoleService)
}

// Role constants
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleCustomer = "customer"
	// RoleService is held by internal callers such as the payments pipeline.
	RoleService = "service"
)
