package models

import (
	"fmt"
	"slices"
	"strings"
)

// Role gates which workflow operations a user may call.
type Role string

const (
	// RoleReceiver records receptions (Conferente).
	RoleReceiver Role = "receiver"
	// RoleAuditor audits receptions and follows divergences (Prevenção).
	RoleAuditor Role = "auditor"
	// RoleAdmin may call everything, including user management (Gestor).
	RoleAdmin Role = "admin"
)

// ParseRole also accepts the Portuguese role names used on the shop floor.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "receiver", "conferente":
		return RoleReceiver, nil
	case "auditor", "prevencao", "prevenção":
		return RoleAuditor, nil
	case "admin", "gestor":
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, raw)
	}
}

// User is an operator account.
type User struct {
	ID           string `gorm:"primaryKey;size:64" json:"id"`
	DisplayName  string `gorm:"size:128;not null" json:"display_name"`
	Role         Role   `gorm:"size:16;not null" json:"role"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
}

// Session identifies the operator behind a request.
type Session struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// Is reports whether the session holds one of roles.
func (s Session) Is(roles ...Role) bool {
	return slices.Contains(roles, s.Role)
}

// RequireRole fails with ErrUnauthorized for an anonymous session and with
// ErrForbidden when the role is not allowed. Admins pass every check.
func RequireRole(sess Session, allowed ...Role) error {
	if sess.UserID == "" {
		return ErrUnauthorized
	}
	if sess.Role == RoleAdmin || sess.Is(allowed...) {
		return nil
	}
	return fmt.Errorf("%w: role %s may not perform this operation", ErrForbidden, sess.Role)
}
