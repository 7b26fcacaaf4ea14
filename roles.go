package authcore

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Role is a built-in privilege level. The built-in set is fixed; operator
// defined roles are CustomRole values referenced by id.
type Role string

const (
	// RoleRoot marks the bootstrap superuser. It is implied by the root
	// account rather than granted, and can never be assigned.
	RoleRoot Role = "Root"
	// RoleCreateAdmin permits creating admin accounts and viewing any user.
	RoleCreateAdmin Role = "CreateAdmin"
	// RoleAdmin permits general administration: disable/enable accounts,
	// role updates, token revocation, config updates.
	RoleAdmin Role = "Admin"
	// RoleDevToken permits issuing developer tokens.
	RoleDevToken Role = "DevToken"
	// RoleServToken permits issuing service tokens.
	RoleServToken Role = "ServToken"
)

// Roles returns all built-in roles.
func Roles() []Role {
	return []Role{RoleRoot, RoleCreateAdmin, RoleAdmin, RoleDevToken, RoleServToken}
}

// IsValid reports whether the role is one of the built-in roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleRoot, RoleCreateAdmin, RoleAdmin, RoleDevToken, RoleServToken:
		return true
	default:
		return false
	}
}

// Description is the human readable name of the role.
func (r Role) Description() string {
	switch r {
	case RoleRoot:
		return "Root"
	case RoleCreateAdmin:
		return "Create administrator"
	case RoleAdmin:
		return "Administrator"
	case RoleDevToken:
		return "Create developer tokens"
	case RoleServToken:
		return "Create server tokens"
	default:
		return string(r)
	}
}

// ParseRole maps a string to a built-in role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.IsValid()
}

var customRoleIDRegexp = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// CustomRole is an operator defined authorization tag. Deleting a custom
// role removes it from every user that holds it.
type CustomRole struct {
	ID          string
	Description string
}

// NewCustomRole validates and returns a custom role.
func NewCustomRole(id, description string) (CustomRole, error) {
	id = strings.TrimSpace(id)
	description = strings.TrimSpace(description)
	if id == "" {
		return CustomRole{}, missingParameter("custom role id")
	}
	if err := validation.Validate(id,
		validation.Length(1, 100),
		validation.Match(customRoleIDRegexp),
	); err != nil {
		return CustomRole{}, illegalParameter("illegal custom role id: " + err.Error())
	}
	if description == "" {
		return CustomRole{}, missingParameter("custom role description")
	}
	if err := validation.Validate(description, validation.Length(1, 250)); err != nil {
		return CustomRole{}, illegalParameter("illegal custom role description: " + err.Error())
	}
	return CustomRole{ID: id, Description: description}, nil
}

// CheckCustomRoleID validates a custom role id on its own, for operations
// that reference a role without a description (e.g. delete).
func CheckCustomRoleID(id string) (string, error) {
	role, err := NewCustomRole(id, "placeholder")
	if err != nil {
		return "", err
	}
	return role.ID, nil
}

// PolicyID is an opaque tag from an external policy system, recorded on a
// user when they accept the policy.
type PolicyID string

// NewPolicyID validates and returns a policy id.
func NewPolicyID(id string) (PolicyID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", missingParameter("policy id")
	}
	if err := validation.Validate(id, validation.Length(1, 20)); err != nil {
		return "", illegalParameter("illegal policy id: " + err.Error())
	}
	if strings.ContainsAny(id, " \t\n\r") {
		return "", illegalParameter("policy id cannot contain whitespace")
	}
	return PolicyID(id), nil
}

func (p PolicyID) String() string {
	return string(p)
}
