package domain

import (
	"errors"
	"time"
)

// Membership roles on a shared jar.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

var ErrMemberExists = errors.New("member already invited")
var ErrMemberNotFound = errors.New("member not found")
var ErrInvalidRole = errors.New("invalid member role")

// JarMember grants a non-owner user access to a shared jar. The grant is
// inactive until the invitee accepts.
type JarMember struct {
	ID         string     `json:"id"`
	JarID      string     `json:"jar_id"`
	UserID     string     `json:"user_id"`
	Role       string     `json:"role"`
	InvitedAt  time.Time  `json:"invited_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// Accepted reports whether the invitee has accepted the invite.
func (m *JarMember) Accepted() bool {
	return m.AcceptedAt != nil
}

// RoleCanEdit reports whether role may move money in or out of the jar.
func RoleCanEdit(role string) bool {
	return role == RoleOwner || role == RoleEditor
}

// ValidMemberRole reports whether role is assignable to an invitee.
// Ownership is implicit on the jar itself and never granted by invite.
func ValidMemberRole(role string) bool {
	return role == RoleEditor || role == RoleViewer
}
