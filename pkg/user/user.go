package user

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleChauffeur  Role = "CHAUFFEUR"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin, RoleChauffeur:
		return true
	}
	return false
}

// IsAdmin reports whether the role can manage the calendar and the user list.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is an account in the flat user list. Email is the identity; Password
// holds the bcrypt hash and never leaves the process through JSON.
type User struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"-"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Approved bool   `json:"approved"`
}
