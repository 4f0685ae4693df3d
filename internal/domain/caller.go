package domain

// Caller is the authenticated identity behind a request.
type Caller struct {
	ID   string
	Role Role
}

// Role represents a caller's access level
type Role string

const (
	// RoleAdmin has full access to all operations
	RoleAdmin Role = "admin"

	// RoleOperator may run privileged engine operations such as liquidation
	RoleOperator Role = "operator"

	// RoleAccount is an ordinary account holder
	RoleAccount Role = "account"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOperator: true,
	RoleAccount:  true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}
