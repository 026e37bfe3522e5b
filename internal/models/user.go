package models

import "time"

// UserRole represents the available roles for the console.
type UserRole string

const (
	RoleAdmin     UserRole = "ADMIN"
	RoleFaculty   UserRole = "FACULTY"
	RoleRegistrar UserRole = "REGISTRAR"
	RoleStudent   UserRole = "STUDENT"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleRegistrar, RoleStudent:
		return true
	}
	return false
}

// User represents a console account stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	Department   *string    `db:"department" json:"department,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Identity is the role-bearing profile held for the duration of a session.
// It is created at authentication time and immutable until logout.
type Identity struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	Role        UserRole `json:"role"`
	Active      bool     `json:"active"`
}

// IdentityFromUser projects the persisted account into a session identity.
func IdentityFromUser(u *User) Identity {
	return Identity{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.FullName,
		Role:        u.Role,
		Active:      u.Active,
	}
}

// UserFilter captures filtering criteria for listing accounts.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
