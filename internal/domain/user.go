package domain

import "time"

// Roles assignable to a user account.
const (
	RoleSuperAdmin      = "super_admin"
	RoleAdmin           = "admin"
	RoleCommitteeMember = "committee_member"
	RoleHost            = "host"
	RoleDriver          = "driver"
	RoleVolunteer       = "volunteer"
	RoleRecipient       = "recipient"
	RoleViewer          = "viewer"
)

// User represents a platform account.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FirstName    string
	LastName     string
	Role         string
	// Permissions are explicit per-user capability overrides that take
	// precedence over the role table.
	Permissions []string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName returns the name shown in chat and dashboards.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}
