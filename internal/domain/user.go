package domain

import (
	"context"
	"errors"
)

// User is the authenticated caller taken from a bearer token.
type User struct {
	ID    string
	Email string
	Name  string
	Role  Role
}

// Actor returns the name recorded as erfasst_von on entries.
func (u *User) Actor() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin can additionally delete partners
	RoleAdmin Role = "admin"

	// RoleOperator can book entries, corrections and close months
	RoleOperator Role = "operator"

	// RoleViewer can only read balances and statements
	RoleViewer Role = "viewer"
)

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOperator, RoleViewer:
		return true
	}
	return false
}

// CanWrite checks if the role can book entries and close months
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleOperator
}

// CanDelete checks if the role can delete partners
func (r Role) CanDelete() bool {
	return r == RoleAdmin
}

type userContextKey struct{}

// WithUser stores the authenticated user in ctx.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*User)
	return u, ok && u != nil
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
