package model

// Role represents a user's access level, either globally or within a project
// team. New users start as pending until promoted.
type Role string

const (
	RolePending   Role = "pending"
	RoleMember    Role = "member"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

// User is the identity supplied by the auth collaborator
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}
