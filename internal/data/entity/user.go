package entity

type UserRole string

const (
	RoleUser       UserRole = "USER"
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleSubAdmin   UserRole = "SUB_ADMIN"
)

// IsAdmin reports whether the role carries admin privileges
func (r UserRole) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleSubAdmin
}

type User struct {
	Base
	Name          string   `db:"name"`
	Email         string   `db:"email"`
	PasswordHash  string   `db:"password"`
	Phone         *string  `db:"phone"`
	Role          UserRole `db:"role"`
	EmailVerified bool     `db:"email_verified"`
	IsActive      bool     `db:"is_active"`
}
