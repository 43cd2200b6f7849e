package models

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin              Role = "admin"
	RoleDeveloper          Role = "developer"
	RoleSocialMediaManager Role = "social_media_manager"
	RoleClientManager      Role = "client_manager"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleDeveloper, RoleSocialMediaManager, RoleClientManager}

var roleLabels = map[Role]string{
	RoleAdmin:              "Admin",
	RoleDeveloper:          "Developer",
	RoleSocialMediaManager: "Social Media Manager",
	RoleClientManager:      "Client Manager",
}

func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"fullName"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p Profile) IsAdmin() bool { return p.Role == RoleAdmin }

// DisplayName falls back to the email when no full name was given.
func (p Profile) DisplayName() string {
	if p.FullName != nil && strings.TrimSpace(*p.FullName) != "" {
		return *p.FullName
	}
	return p.Email
}

// Credential is the self-hosted identity record behind a Profile.
type Credential struct {
	ID                string
	Email             string
	PasswordHash      string
	ConfirmationToken *string
	ConfirmedAt       *time.Time
	CreatedAt         time.Time
}

func (c Credential) Confirmed() bool { return c.ConfirmedAt != nil }
