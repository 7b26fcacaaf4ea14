package authcore

import (
	"context"
)

// UpdateRoles adds and removes built-in roles on the named account in one
// step; a role present in both sets is removed. Granting Admin requires
// CreateAdmin (or root); granting CreateAdmin requires root; the Root role
// and the root account itself are never touched here.
func (a *Auth) UpdateRoles(ctx context.Context, token IncomingToken, name UserName, add []Role, remove []Role) error {
	if name == "" {
		return missingParameter("user name")
	}
	if name.IsRoot() {
		return unauthorized("the root account's roles may not be changed")
	}
	for _, r := range append(append([]Role{}, add...), remove...) {
		if !r.IsValid() {
			return illegalParameter("illegal role: " + string(r))
		}
		if r == RoleRoot {
			return unauthorized("the root role may not be granted or revoked")
		}
	}
	admin, err := a.getAdmin(ctx, token, RoleAdmin)
	if err != nil {
		return err
	}
	for _, r := range add {
		switch r {
		case RoleCreateAdmin:
			if !admin.IsRoot() {
				return unauthorized("only the root account may grant the create-administrator role")
			}
		case RoleAdmin:
			if !admin.IsRoot() && !admin.HasRole(RoleCreateAdmin) {
				return unauthorized("only create-administrators may grant the administrator role")
			}
		}
	}
	return a.storage.UpdateRoles(ctx, name, add, remove)
}

// SetCustomRole creates or updates a custom role definition. Admin only.
func (a *Auth) SetCustomRole(ctx context.Context, token IncomingToken, role CustomRole) error {
	if role.ID == "" {
		return missingParameter("custom role id")
	}
	if _, err := a.getAdmin(ctx, token, RoleAdmin); err != nil {
		return err
	}
	return a.storage.SetCustomRole(ctx, role)
}

// DeleteCustomRole removes a custom role definition and strips it from
// every account holding it. Admin only.
func (a *Auth) DeleteCustomRole(ctx context.Context, token IncomingToken, roleID string) error {
	roleID, err := CheckCustomRoleID(roleID)
	if err != nil {
		return err
	}
	if _, err := a.getAdmin(ctx, token, RoleAdmin); err != nil {
		return err
	}
	return a.storage.DeleteCustomRole(ctx, roleID)
}

// GetCustomRoles lists every custom role definition. Any valid token may
// ask.
func (a *Auth) GetCustomRoles(ctx context.Context, token IncomingToken) ([]CustomRole, error) {
	if _, _, err := a.getUserFromToken(ctx, token); err != nil {
		return nil, err
	}
	return a.storage.GetCustomRoles(ctx)
}

// UpdateCustomRoles adds and removes custom roles on the named account with
// the same remove-wins semantics as UpdateRoles. Admin only.
func (a *Auth) UpdateCustomRoles(ctx context.Context, token IncomingToken, name UserName, add []string, remove []string) error {
	if name == "" {
		return missingParameter("user name")
	}
	if name.IsRoot() {
		return unauthorized("the root account's roles may not be changed")
	}
	for _, id := range append(append([]string{}, add...), remove...) {
		if _, err := CheckCustomRoleID(id); err != nil {
			return err
		}
	}
	if _, err := a.getAdmin(ctx, token, RoleAdmin); err != nil {
		return err
	}
	return a.storage.UpdateCustomRoles(ctx, name, add, remove)
}

// UpdateConfig applies a configuration update. Admin only. With overwrite
// the update replaces current values; without, only unset keys are written.
func (a *Auth) UpdateConfig(ctx context.Context, token IncomingToken, update AuthConfigUpdate, overwrite bool) error {
	if _, err := a.getAdmin(ctx, token, RoleAdmin); err != nil {
		return err
	}
	return a.storage.UpdateConfig(ctx, update, overwrite)
}
